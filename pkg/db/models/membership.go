package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fabguard/storefront-backend/pkg/types"
)

// Membership is a purchasable plan.
type Membership struct {
	ID                 int64            `gorm:"column:id;primaryKey"`
	Name               string           `gorm:"column:name;not null"`
	Price              decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	ValidityYears      int              `gorm:"column:validity_years;not null;default:1"`
	DiscountPercentage int              `gorm:"column:discount_percentage;not null;default:0"`
	ServicesIncluded   types.StringList `gorm:"column:services_included;type:text;not null"`
	Features           types.StringList `gorm:"column:features;type:text;not null"`
	IsPopular          bool             `gorm:"column:is_popular;not null;default:false"`
	IsActive           bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// CustomerMembership is a customer's registration for a plan. It stays inactive
// until an admin confirms payment.
type CustomerMembership struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID   uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	MembershipID int64     `gorm:"column:membership_id;not null"`
	StartDate    time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate      time.Time `gorm:"column:end_date;type:date;not null"`
	ReferralCode *string   `gorm:"column:referral_code"`
	IsActive     bool      `gorm:"column:is_active;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
