package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fabguard/storefront-backend/pkg/db/models"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Contact is the identifying data supplied with an order or registration.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Repository persists customers keyed by email.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a customer repository to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByEmail returns nil when no customer uses email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&customer).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Upsert finds the customer by email or creates one. When refresh is set an
// existing row takes the supplied name, phone and address.
func (r *Repository) Upsert(ctx context.Context, contact Contact, refresh bool) (*models.Customer, error) {
	contact.Email = normalizeEmail(contact.Email)
	if contact.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	customer, err := r.FindByEmail(ctx, contact.Email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		created, err := r.create(ctx, contact)
		if err != nil {
			return nil, err
		}
		if created != nil {
			return created, nil
		}
		// lost a race with a concurrent insert for the same email
		customer, err = r.FindByEmail(ctx, contact.Email)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, fmt.Errorf("customer %s missing after conflicting insert", contact.Email)
		}
	}

	if refresh {
		if err := r.refresh(ctx, customer, contact); err != nil {
			return nil, err
		}
	}
	return customer, nil
}

func (r *Repository) create(ctx context.Context, contact Contact) (*models.Customer, error) {
	customer := &models.Customer{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(contact.Name),
		Email:   contact.Email,
		Phone:   strings.TrimSpace(contact.Phone),
		Address: optional(contact.Address),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(customer)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return customer, nil
}

func (r *Repository) refresh(ctx context.Context, customer *models.Customer, contact Contact) error {
	customer.Name = strings.TrimSpace(contact.Name)
	customer.Phone = strings.TrimSpace(contact.Phone)
	customer.Address = optional(contact.Address)
	return r.db.WithContext(ctx).
		Model(customer).
		Select("name", "phone", "address", "updated_at").
		Updates(customer).
		Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
