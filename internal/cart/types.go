package cart

import (
	"fmt"

	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Service is a bookable catalog offering as seen by the cart.
// Price is the flat visit charge in rupees.
type Service struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
}

// SelectedItem is one sub-item of a service the customer can tick.
type SelectedItem struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// Line is one service in the cart. SelectedItems stays nil until the line is first expanded.
type Line struct {
	Service       Service        `json:"service"`
	Quantity      int            `json:"quantity"`
	SelectedItems []SelectedItem `json:"selected_items,omitempty"`
}

// HasSelection reports whether at least one sub-item is ticked.
func (l Line) HasSelection() bool {
	for _, item := range l.SelectedItems {
		if item.Selected {
			return true
		}
	}
	return false
}

// SelectedNames returns the names of ticked sub-items in order.
func (l Line) SelectedNames() []string {
	names := make([]string, 0, len(l.SelectedItems))
	for _, item := range l.SelectedItems {
		if item.Selected {
			names = append(names, item.Name)
		}
	}
	return names
}

func (l Line) clone() Line {
	out := l
	if l.SelectedItems != nil {
		out.SelectedItems = append([]SelectedItem(nil), l.SelectedItems...)
	}
	return out
}

// Signal is the outcome of a cart mutation. Mutations never fail hard; callers turn
// the signal into a user-visible message.
type Signal string

const (
	SignalAdded         Signal = "added"
	SignalAlreadyInCart Signal = "already_in_cart"
	SignalRemoved       Signal = "removed"
	SignalUpdated       Signal = "updated"
	SignalNotFound      Signal = "not_found"
)

// OK reports whether the mutation changed the cart.
func (s Signal) OK() bool {
	return s == SignalAdded || s == SignalRemoved || s == SignalUpdated
}

// Err maps a rejecting signal onto the error taxonomy. Successful signals return nil.
func (s Signal) Err(serviceID int64) error {
	switch s {
	case SignalAlreadyInCart:
		return pkgerrors.New(pkgerrors.CodeDuplicateLine, fmt.Sprintf("service %d is already in the cart", serviceID)).
			WithDetails(map[string]any{"service_id": serviceID})
	case SignalNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("service %d not found", serviceID)).
			WithDetails(map[string]any{"service_id": serviceID})
	default:
		return nil
	}
}

// SizeChange is delivered to observers whenever the number of lines changes.
type SizeChange struct {
	Previous int
	Current  int
}
