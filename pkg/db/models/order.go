package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fabguard/storefront-backend/pkg/enums"
	"github.com/fabguard/storefront-backend/pkg/types"
)

// Order is a placed booking. Reference is the customer facing identifier.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Reference      string              `gorm:"column:reference;not null;uniqueIndex"`
	CustomerID     uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	TotalAmount    decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	FinalAmount    decimal.Decimal     `gorm:"column:final_amount;type:numeric(10,2);not null"`
	CouponCode     *string             `gorm:"column:coupon_code"`
	CustomerNote   *string             `gorm:"column:customer_note"`
	Status         enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cash_on_delivery'"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots one cart line at the time the order was placed.
type OrderItem struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID        `gorm:"column:order_id;type:uuid;not null"`
	ServiceID     int64            `gorm:"column:service_id;not null"`
	ServiceName   string           `gorm:"column:service_name;not null"`
	Quantity      int              `gorm:"column:quantity;not null;default:1"`
	UnitPrice     decimal.Decimal  `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalPrice    decimal.Decimal  `gorm:"column:total_price;type:numeric(10,2);not null"`
	SelectedItems types.StringList `gorm:"column:selected_items;type:text;not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
}
