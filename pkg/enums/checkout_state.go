package enums

import "fmt"

// CheckoutState is the current step of a browser session's checkout flow.
type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "idle"
	CheckoutStateItemSelection   CheckoutState = "item_selection"
	CheckoutStateCustomerDetails CheckoutState = "customer_details"
	CheckoutStateSubmitting      CheckoutState = "submitting"
	CheckoutStateCompleted       CheckoutState = "completed"
	CheckoutStateFailed          CheckoutState = "failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateItemSelection,
	CheckoutStateCustomerDetails,
	CheckoutStateSubmitting,
	CheckoutStateCompleted,
	CheckoutStateFailed,
}

// String implements fmt.Stringer.
func (v CheckoutState) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CheckoutState.
func (v CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
