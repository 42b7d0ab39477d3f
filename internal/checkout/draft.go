package checkout

import (
	"strings"
	"time"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/shopspring/decimal"
)

// CustomerDetails is what the customer types into the checkout form.
type CustomerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Note    string `json:"note,omitempty"`
}

func (d CustomerDetails) normalized() CustomerDetails {
	return CustomerDetails{
		Name:    strings.TrimSpace(d.Name),
		Email:   strings.TrimSpace(d.Email),
		Phone:   strings.TrimSpace(d.Phone),
		Address: strings.TrimSpace(d.Address),
		Note:    strings.TrimSpace(d.Note),
	}
}

// missingFields returns a message per empty required field, keyed by field name.
func (d CustomerDetails) missingFields() map[string]string {
	missing := map[string]string{}
	if d.Name == "" {
		missing["name"] = "name is required"
	}
	if d.Email == "" {
		missing["email"] = "email is required"
	}
	if d.Phone == "" {
		missing["phone"] = "phone is required"
	}
	if d.Address == "" {
		missing["address"] = "address is required"
	}
	return missing
}

// Totals is the priced view of the cart with any coupon applied.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// OrderDraft is the immutable order handed to the submission pipeline.
// Reference and PlacedAt are assigned by the pipeline.
type OrderDraft struct {
	Reference  string
	PlacedAt   time.Time
	Customer   CustomerDetails
	CouponCode string
	Lines      []cart.Line
	Totals     Totals
}

// OrderRecord identifies the persisted order.
type OrderRecord struct {
	OrderID    string
	CustomerID string
}

// OrderNotification is the payload handed to the notifier once the order is stored.
type OrderNotification struct {
	OrderID    string
	CustomerID string
	Draft      OrderDraft
}

// NotificationReceipt is returned by a notifier that produced something the customer can act on.
type NotificationReceipt struct {
	Link string
}
