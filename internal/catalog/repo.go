package catalog

import (
	"context"
	"errors"

	"github.com/fabguard/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the catalog tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a catalog repository to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActiveServices returns bookable services grouped by category.
func (r *Repository) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	var rows []models.Service
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category ASC").
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListActiveMemberships returns purchasable plans, cheapest first.
func (r *Repository) ListActiveMemberships(ctx context.Context) ([]models.Membership, error) {
	var rows []models.Membership
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price ASC").
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListServiceItems returns the sub-item rows configured for a service.
func (r *Repository) ListServiceItems(ctx context.Context, serviceID int64) ([]models.ServiceItem, error) {
	var rows []models.ServiceItem
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("item_name ASC").
		Find(&rows).
		Error
	return rows, err
}

// FindMembership returns an active membership or nil when none matches.
func (r *Repository) FindMembership(ctx context.Context, id int64) (*models.Membership, error) {
	var row models.Membership
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&row).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
