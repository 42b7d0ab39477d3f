package checkout

import (
	"github.com/fabguard/storefront-backend/pkg/enums"
)

// Snapshot is the serializable part of a flow, persisted alongside the cart lines.
type Snapshot struct {
	State         enums.CheckoutState `json:"state"`
	CartOpen      bool                `json:"cart_open"`
	Details       CustomerDetails     `json:"details"`
	TermsAccepted bool                `json:"terms_accepted"`
	CouponCode    string              `json:"coupon_code,omitempty"`
	LastError     string              `json:"last_error,omitempty"`
}

// Snapshot captures the flow for persistence.
func (f *Flow) Snapshot() Snapshot {
	s := Snapshot{
		State:         f.state,
		CartOpen:      f.cartOpen,
		Details:       f.details,
		TermsAccepted: f.termsAccepted,
		LastError:     f.lastError,
	}
	if f.coupon != nil {
		s.CouponCode = f.coupon.Code
	}
	return s
}

// Restore rehydrates the flow. A snapshot taken mid-submit comes back as failed
// since the outcome is unknown. Coupons no longer in the table are dropped.
func (f *Flow) Restore(s Snapshot) {
	state := s.State
	if !state.IsValid() {
		state = enums.CheckoutStateIdle
	}
	if state == enums.CheckoutStateSubmitting {
		state = enums.CheckoutStateFailed
	}
	f.state = state
	f.cartOpen = s.CartOpen
	f.details = s.Details.normalized()
	f.termsAccepted = s.TermsAccepted
	f.lastError = s.LastError
	f.coupon = nil
	if s.CouponCode != "" {
		if c, err := f.coupons.Resolve(s.CouponCode); err == nil {
			f.coupon = &c
		}
	}
	if f.store.IsEmpty() && f.checkoutOpen() {
		f.state = enums.CheckoutStateIdle
	}
}
