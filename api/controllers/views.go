package controllers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/coupons"
	"github.com/fabguard/storefront-backend/internal/sessions"
	"github.com/fabguard/storefront-backend/pkg/enums"
)

// SessionRunner gives handlers exclusive access to the caller's session.
type SessionRunner interface {
	Do(ctx context.Context, sessionID string, fn func(*sessions.Session) error) error
}

type cartResponse struct {
	Lines     []cart.Line       `json:"lines"`
	LineCount int               `json:"line_count"`
	Total     decimal.Decimal   `json:"total"`
	Surfaces  checkout.Surfaces `json:"surfaces"`
}

type cartMutationResponse struct {
	Cart    cartResponse `json:"cart"`
	Signal  cart.Signal  `json:"signal"`
	Message string       `json:"message,omitempty"`
}

type couponResponse struct {
	Code   string             `json:"code"`
	Type   enums.DiscountType `json:"type"`
	Amount decimal.Decimal    `json:"amount"`
	Label  string             `json:"label"`
}

type submitResponse struct {
	*checkout.SubmitResult
	NotificationFailed bool `json:"notification_failed"`
}

type checkoutResponse struct {
	State         enums.CheckoutState      `json:"state"`
	Surfaces      checkout.Surfaces        `json:"surfaces"`
	Details       checkout.CustomerDetails `json:"details"`
	TermsAccepted bool                     `json:"terms_accepted"`
	Coupon        *couponResponse          `json:"coupon,omitempty"`
	Totals        checkout.Totals          `json:"totals"`
	Cart          cartResponse             `json:"cart"`
	LastResult    *submitResponse          `json:"last_result,omitempty"`
	LastError     string                   `json:"last_error,omitempty"`
}

func newCartResponse(sess *sessions.Session) cartResponse {
	return cartResponse{
		Lines:     sess.Cart.Lines(),
		LineCount: sess.Cart.TotalLineCount(),
		Total:     sess.Cart.TotalPrice(),
		Surfaces:  sess.Flow.Surfaces(),
	}
}

func newCheckoutResponse(sess *sessions.Session) checkoutResponse {
	flow := sess.Flow
	resp := checkoutResponse{
		State:         flow.State(),
		Surfaces:      flow.Surfaces(),
		Details:       flow.Details(),
		TermsAccepted: flow.TermsAccepted(),
		Totals:        flow.Totals(),
		Cart:          newCartResponse(sess),
		LastResult:    newSubmitResponse(flow.LastResult()),
		LastError:     flow.LastError(),
	}
	if c, ok := flow.Coupon(); ok {
		resp.Coupon = newCouponResponse(c)
	}
	return resp
}

func newCouponResponse(c coupons.Coupon) *couponResponse {
	return &couponResponse{Code: c.Code, Type: c.Type, Amount: c.Amount, Label: c.Label()}
}

func newSubmitResponse(result *checkout.SubmitResult) *submitResponse {
	if result == nil {
		return nil
	}
	return &submitResponse{SubmitResult: result, NotificationFailed: result.NotificationFailed()}
}
