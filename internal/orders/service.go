package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/customers"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/pagination"
	"github.com/fabguard/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerRepositoryFactory binds a customer repository to a transaction.
type CustomerRepositoryFactory func(tx *gorm.DB) CustomerRepository

// Service stores submitted orders and reads them back for customers.
type Service struct {
	tx        txRunner
	repo      Repository
	customers CustomerRepositoryFactory
	logg      *logger.Logger
}

// NewService wires the order service.
func NewService(tx txRunner, repo Repository, customersFor CustomerRepositoryFactory, logg *logger.Logger) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if customersFor == nil {
		customersFor = func(tx *gorm.DB) CustomerRepository { return customers.NewRepository(tx) }
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{tx: tx, repo: repo, customers: customersFor, logg: logg}, nil
}

// CreateOrder stores the customer, the order and its items in one transaction.
func (s *Service) CreateOrder(ctx context.Context, draft checkout.OrderDraft) (*checkout.OrderRecord, error) {
	if strings.TrimSpace(draft.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	if len(draft.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no services")
	}

	var record checkout.OrderRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := s.customers(tx).Upsert(ctx, customers.Contact{
			Name:    draft.Customer.Name,
			Email:   draft.Customer.Email,
			Phone:   draft.Customer.Phone,
			Address: draft.Customer.Address,
		}, true)
		if err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}

		order := &models.Order{
			ID:             uuid.New(),
			Reference:      draft.Reference,
			CustomerID:     customer.ID,
			TotalAmount:    draft.Totals.Subtotal,
			DiscountAmount: draft.Totals.Discount,
			FinalAmount:    draft.Totals.FinalTotal,
			CouponCode:     optional(draft.CouponCode),
			CustomerNote:   optional(draft.Customer.Note),
			Status:         enums.OrderStatusPending,
			PaymentMethod:  enums.PaymentMethodCashOnDelivery,
		}
		if !draft.PlacedAt.IsZero() {
			order.CreatedAt = draft.PlacedAt
			order.UpdatedAt = draft.PlacedAt
		}
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(draft.Lines))
		for _, line := range draft.Lines {
			quantity := line.Quantity
			if quantity < 1 {
				quantity = 1
			}
			items = append(items, models.OrderItem{
				ID:            uuid.New(),
				OrderID:       order.ID,
				ServiceID:     line.Service.ID,
				ServiceName:   line.Service.Name,
				Quantity:      quantity,
				UnitPrice:     line.Service.Price,
				TotalPrice:    line.Service.Price,
				SelectedItems: types.StringList(line.SelectedNames()),
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		record = checkout.OrderRecord{OrderID: order.ID.String(), CustomerID: customer.ID.String()}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
			return nil, err
		}
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "order reference already used")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "order could not be saved")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_record_id": record.OrderID,
		"customer_id":     record.CustomerID,
		"items":           len(draft.Lines),
	}), "orders.created")
	return &record, nil
}

// ListByEmail returns one page of the orders placed under email, newest first.
func (s *Service) ListByEmail(ctx context.Context, email string, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByCustomerEmail(ctx, email, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, orderToDTO(row))
	}
	return &pagination.Page[OrderDTO]{Items: out, NextCursor: next}, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
