package coupons

import (
	"fmt"

	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Coupon is a static discount code. Amount is rupees for flat coupons and a
// percentage of the subtotal for percentage coupons.
type Coupon struct {
	Code   string             `json:"code"`
	Type   enums.DiscountType `json:"type"`
	Amount decimal.Decimal    `json:"amount"`
}

// Discount computes the rupee discount against subtotal, rounded to paise. It can
// exceed the subtotal; the caller floors the final total.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case enums.DiscountTypePercentage:
		return subtotal.Mul(c.Amount).Div(hundred).Round(2)
	case enums.DiscountTypeFlat:
		return c.Amount
	default:
		return decimal.Zero
	}
}

// Label renders the coupon for customer-facing messages.
func (c Coupon) Label() string {
	if c.Type == enums.DiscountTypePercentage {
		return fmt.Sprintf("%s%% off", c.Amount.String())
	}
	return fmt.Sprintf("₹%s off", c.Amount.StringFixed(0))
}

// Table is an immutable code lookup. Matching is exact and case-sensitive.
type Table struct {
	byCode map[string]Coupon
}

// NewTable indexes coupons by code. It rejects empty codes, duplicates and unknown types.
func NewTable(coupons ...Coupon) (*Table, error) {
	byCode := make(map[string]Coupon, len(coupons))
	for _, c := range coupons {
		if c.Code == "" {
			return nil, fmt.Errorf("coupon code is required")
		}
		if !c.Type.IsValid() {
			return nil, fmt.Errorf("coupon %s: invalid discount type %q", c.Code, c.Type)
		}
		if c.Amount.IsNegative() {
			return nil, fmt.Errorf("coupon %s: amount must not be negative", c.Code)
		}
		if _, dup := byCode[c.Code]; dup {
			return nil, fmt.Errorf("coupon %s: duplicate code", c.Code)
		}
		byCode[c.Code] = c
	}
	return &Table{byCode: byCode}, nil
}

// Lookup finds a coupon by its exact code.
func (t *Table) Lookup(code string) (Coupon, bool) {
	if t == nil {
		return Coupon{}, false
	}
	c, ok := t.byCode[code]
	return c, ok
}

// Resolve is Lookup returning an INVALID_COUPON error for unknown codes.
func (t *Table) Resolve(code string) (Coupon, error) {
	c, ok := t.Lookup(code)
	if !ok {
		return Coupon{}, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon code is not valid").
			WithDetails(map[string]any{"code": code})
	}
	return c, nil
}

// Len returns the number of codes in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byCode)
}
