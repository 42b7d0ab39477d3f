package memberships

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fabguard/storefront-backend/pkg/db/models"
)

// Repository holds maintenance queries over customer memberships.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DeactivateEndedBefore switches off active memberships whose end date is before day.
func (r *Repository) DeactivateEndedBefore(ctx context.Context, tx *gorm.DB, day time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	res := tx.WithContext(ctx).
		Model(&models.CustomerMembership{}).
		Where("is_active = ? AND end_date < ?", true, day.UTC()).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
