package orders

import (
	"context"

	"github.com/fabguard/storefront-backend/internal/customers"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/fabguard/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	ListByCustomerEmail(ctx context.Context, email string, limit int, cursor *pagination.Cursor) ([]models.Order, error)
}

// CustomerRepository resolves the customer an order belongs to.
type CustomerRepository interface {
	Upsert(ctx context.Context, contact customers.Contact, refresh bool) (*models.Customer, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
