package coupons

import (
	"github.com/fabguard/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// campaignCodes all grant 10% off. They were printed on flyers, so spelling and case are fixed.
var campaignCodes = []string{
	"Apple10", "BAT10", "Cherish10", "Delite10", "Enjoy10",
	"Fun10", "Great10", "Hello10", "Icy10", "Joy10",
	"Kind10", "Lite10", "MOJO10", "New10", "Oggy10",
	"Anchor10", "BEN10", "Candle10", "Den10", "Eager10",
	"Fab10", "GOAT10", "Home10", "Imli10", "Jump10",
	"King10", "Lion10", "MOTO10", "Nora10", "Oslo10",
	"Aries10", "Brave10", "COAL10", "Dia10", "Emerald10",
	"Flint10", "Gill10", "Hat10", "IQ10", "JOSH10",
	"KATE10", "Lan10", "MEN10", "NICE10", "OLA10",
}

// Defaults returns the storefront's built-in coupon set.
func Defaults() []Coupon {
	out := []Coupon{
		{Code: "SAVE10", Type: enums.DiscountTypeFlat, Amount: decimal.NewFromInt(10)},
		{Code: "WELCOME20", Type: enums.DiscountTypePercentage, Amount: decimal.NewFromInt(20)},
	}
	for _, code := range campaignCodes {
		out = append(out, Coupon{Code: code, Type: enums.DiscountTypePercentage, Amount: decimal.NewFromInt(10)})
	}
	return out
}

// DefaultTable builds the built-in table. The defaults are static, so construction cannot fail.
func DefaultTable() *Table {
	t, err := NewTable(Defaults()...)
	if err != nil {
		panic(err)
	}
	return t
}
