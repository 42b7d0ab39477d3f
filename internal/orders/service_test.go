package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/customers"
	"github.com/fabguard/storefront-backend/pkg/db"
	"github.com/fabguard/storefront-backend/pkg/db/dbtest"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(client, NewRepository(client.DB()), nil, nil)
	require.NoError(t, err)
	return svc, client
}

func testDraft(reference string, placedAt time.Time) checkout.OrderDraft {
	return checkout.OrderDraft{
		Reference: reference,
		PlacedAt:  placedAt,
		Customer: checkout.CustomerDetails{
			Name:    "Asha Verma",
			Email:   "asha@example.com",
			Phone:   "9876543210",
			Address: "12 MG Road",
			Note:    "Morning slot please",
		},
		CouponCode: "SAVE10",
		Lines: []cart.Line{
			{
				Service:  cart.Service{ID: 1, Name: "Plumbing Services", Price: decimal.NewFromInt(150)},
				Quantity: 1,
				SelectedItems: []cart.SelectedItem{
					{Name: "TOILET JET", Selected: true},
					{Name: "GULLY TRAP"},
				},
			},
			{
				Service:  cart.Service{ID: 2, Name: "Electrical Services", Price: decimal.NewFromInt(150)},
				Quantity: 1,
			},
		},
		Totals: checkout.Totals{
			Subtotal:   decimal.NewFromInt(300),
			Discount:   decimal.NewFromInt(10),
			FinalTotal: decimal.NewFromInt(290),
		},
	}
}

func TestCreateOrderPersistsEverything(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	placed := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	record, err := svc.CreateOrder(ctx, testDraft("ORDER-1748773800000", placed))
	require.NoError(t, err)
	require.NotEmpty(t, record.OrderID)
	require.NotEmpty(t, record.CustomerID)

	var order models.Order
	require.NoError(t, client.DB().Preload("Items").Where("reference = ?", "ORDER-1748773800000").First(&order).Error)
	assert.Equal(t, record.OrderID, order.ID.String())
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentMethodCashOnDelivery, order.PaymentMethod)
	assert.True(t, decimal.NewFromInt(300).Equal(order.TotalAmount))
	assert.True(t, decimal.NewFromInt(10).Equal(order.DiscountAmount))
	assert.True(t, decimal.NewFromInt(290).Equal(order.FinalAmount))
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)
	require.NotNil(t, order.CustomerNote)
	assert.Equal(t, "Morning slot please", *order.CustomerNote)
	require.Len(t, order.Items, 2)

	var plumbing models.OrderItem
	for _, item := range order.Items {
		if item.ServiceID == 1 {
			plumbing = item
		}
	}
	assert.Equal(t, "Plumbing Services", plumbing.ServiceName)
	assert.Equal(t, 1, plumbing.Quantity)
	assert.True(t, plumbing.UnitPrice.Equal(plumbing.TotalPrice))
	assert.Equal(t, []string{"TOILET JET"}, []string(plumbing.SelectedItems))
}

func TestCreateOrderReusesCustomerByEmail(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, testDraft("ORDER-1", time.Time{}))
	require.NoError(t, err)

	draft := testDraft("ORDER-2", time.Time{})
	draft.Customer.Phone = "1111111111"
	second, err := svc.CreateOrder(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, first.CustomerID, second.CustomerID)

	stored, err := customers.NewRepository(client.DB()).FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1111111111", stored.Phone)
}

func TestCreateOrderDuplicateReferenceRollsBack(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, testDraft("ORDER-DUP", time.Time{}))
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, testDraft("ORDER-DUP", time.Time{}))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))

	var items int64
	require.NoError(t, client.DB().Model(&models.OrderItem{}).Count(&items).Error)
	assert.Equal(t, int64(2), items)
}

func TestCreateOrderRejectsIncompleteDraft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, testDraft("", time.Time{}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	draft := testDraft("ORDER-EMPTY", time.Time{})
	draft.Lines = nil
	_, err = svc.CreateOrder(ctx, draft)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type failingItemsRepo struct {
	Repository
}

func (f failingItemsRepo) WithTx(tx *gorm.DB) Repository {
	return failingItemsRepo{Repository: f.Repository.WithTx(tx)}
}

func (failingItemsRepo) CreateOrderItems(context.Context, []models.OrderItem) error {
	return errors.New("disk full")
}

func TestCreateOrderItemFailureRollsBackOrder(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client, failingItemsRepo{Repository: NewRepository(client.DB())}, nil, nil)
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), testDraft("ORDER-ROLLBACK", time.Time{}))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))

	var orders, people int64
	require.NoError(t, client.DB().Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, client.DB().Model(&models.Customer{}).Count(&people).Error)
	assert.Zero(t, orders)
	assert.Zero(t, people)
}

func TestListByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, testDraft("ORDER-100", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, testDraft("ORDER-200", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	other := testDraft("ORDER-300", time.Time{})
	other.Customer.Email = "someone@example.com"
	_, err = svc.CreateOrder(ctx, other)
	require.NoError(t, err)

	page, err := svc.ListByEmail(ctx, " ASHA@example.com ", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "ORDER-200", page.Items[0].Reference)
	assert.Len(t, page.Items[0].Items, 2)
	assert.Empty(t, page.NextCursor)

	first, err := svc.ListByEmail(ctx, "asha@example.com", pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "ORDER-200", first.Items[0].Reference)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListByEmail(ctx, "asha@example.com", pagination.Params{Limit: 1, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "ORDER-100", second.Items[0].Reference)
	assert.Empty(t, second.NextCursor)

	_, err = svc.ListByEmail(ctx, "", pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ListByEmail(ctx, "asha@example.com", pagination.Params{Cursor: "***"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
