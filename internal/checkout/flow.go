package checkout

import (
	"context"
	"fmt"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/coupons"
	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const termsMessage = "you must accept the terms and conditions"

// Submitter runs an order through persistence and notification.
type Submitter interface {
	Submit(ctx context.Context, draft OrderDraft, clear func()) (*SubmitResult, error)
}

// CouponResolver finds a coupon by exact code.
type CouponResolver interface {
	Resolve(code string) (coupons.Coupon, error)
}

// SubItemSource lists the tickable sub-items for a service.
type SubItemSource interface {
	SubItems(ctx context.Context, svc cart.Service) ([]string, error)
}

// FlowOptions tunes checkout behaviour.
type FlowOptions struct {
	// RequireItemSelection blocks leaving item selection until every line has a ticked sub-item.
	RequireItemSelection bool
}

// Surfaces reports which storefront panels should be visible.
type Surfaces struct {
	CartOpen     bool `json:"cart_open"`
	CheckoutOpen bool `json:"checkout_open"`
}

// Flow is the per-session checkout state machine driving one cart.
// Like the cart it is not safe for concurrent use.
type Flow struct {
	store     *cart.Store
	submitter Submitter
	coupons   CouponResolver
	subItems  SubItemSource
	opts      FlowOptions

	state         enums.CheckoutState
	cartOpen      bool
	details       CustomerDetails
	termsAccepted bool
	coupon        *coupons.Coupon
	lastResult    *SubmitResult
	lastError     string
}

// NewFlow wires a flow around store in the idle state.
func NewFlow(store *cart.Store, submitter Submitter, couponTable CouponResolver, subItems SubItemSource, opts FlowOptions) (*Flow, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter required")
	}
	if couponTable == nil {
		return nil, fmt.Errorf("coupon table required")
	}
	if subItems == nil {
		return nil, fmt.Errorf("sub-item source required")
	}
	return &Flow{
		store:     store,
		submitter: submitter,
		coupons:   couponTable,
		subItems:  subItems,
		opts:      opts,
		state:     enums.CheckoutStateIdle,
	}, nil
}

func (f *Flow) State() enums.CheckoutState { return f.state }

func (f *Flow) Details() CustomerDetails { return f.details }

func (f *Flow) TermsAccepted() bool { return f.termsAccepted }

// Coupon returns the applied coupon, if any.
func (f *Flow) Coupon() (coupons.Coupon, bool) {
	if f.coupon == nil {
		return coupons.Coupon{}, false
	}
	return *f.coupon, true
}

// LastResult is the outcome of the most recent successful submission.
func (f *Flow) LastResult() *SubmitResult { return f.lastResult }

// LastError is the message of the most recent failed submission.
func (f *Flow) LastError() string { return f.lastError }

func (f *Flow) Surfaces() Surfaces {
	return Surfaces{CartOpen: f.cartOpen, CheckoutOpen: f.checkoutOpen()}
}

func (f *Flow) checkoutOpen() bool {
	switch f.state {
	case enums.CheckoutStateItemSelection, enums.CheckoutStateCustomerDetails,
		enums.CheckoutStateSubmitting, enums.CheckoutStateFailed:
		return true
	default:
		return false
	}
}

// SetCartOpen toggles the cart panel.
func (f *Flow) SetCartOpen(open bool) { f.cartOpen = open }

// Open enters item selection. Coming from idle or completed starts a fresh draft;
// from a later step it acts as "back" and keeps the entered details.
func (f *Flow) Open() error {
	if f.state == enums.CheckoutStateSubmitting {
		return f.conflict("open")
	}
	if f.store.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if f.state == enums.CheckoutStateIdle || f.state == enums.CheckoutStateCompleted {
		f.resetDraft()
	}
	f.lastError = ""
	f.state = enums.CheckoutStateItemSelection
	return nil
}

// Cancel closes checkout from any pre-submit step and discards the draft. The cart is kept.
func (f *Flow) Cancel() error {
	if f.state == enums.CheckoutStateSubmitting {
		return f.conflict("cancel")
	}
	f.resetDraft()
	f.lastError = ""
	f.state = enums.CheckoutStateIdle
	return nil
}

// ExpandLine initializes a line's sub-items from the catalog on first expansion and returns them.
func (f *Flow) ExpandLine(ctx context.Context, serviceID int64) ([]cart.SelectedItem, error) {
	if f.state != enums.CheckoutStateItemSelection {
		return nil, f.conflict("expand line")
	}
	line, ok := f.store.Line(serviceID)
	if !ok {
		return nil, cart.SignalNotFound.Err(serviceID)
	}
	if line.SelectedItems != nil {
		return line.SelectedItems, nil
	}

	names, err := f.subItems.SubItems(ctx, line.Service)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service items")
	}
	items := make([]cart.SelectedItem, 0, len(names))
	for _, name := range names {
		items = append(items, cart.SelectedItem{Name: name})
	}
	f.store.SetSelectedItems(serviceID, items)
	return items, nil
}

// CheckItemNames verifies that items name only sub-items offered for the
// line's service, each at most once. A service that is not in the cart is left
// to the cart store to reject.
func (f *Flow) CheckItemNames(ctx context.Context, serviceID int64, items []cart.SelectedItem) error {
	line, ok := f.store.Line(serviceID)
	if !ok {
		return nil
	}
	names, err := f.subItems.SubItems(ctx, line.Service)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service items")
	}
	offered := make(map[string]struct{}, len(names))
	for _, name := range names {
		offered[name] = struct{}{}
	}
	seen := make(map[string]struct{}, len(items))
	details := map[string]string{}
	for i, item := range items {
		key := fmt.Sprintf("items[%d].name", i)
		if _, ok := offered[item.Name]; !ok {
			details[key] = fmt.Sprintf("%q is not offered for %s", item.Name, line.Service.Name)
			continue
		}
		if _, dup := seen[item.Name]; dup {
			details[key] = fmt.Sprintf("%q is listed more than once", item.Name)
		}
		seen[item.Name] = struct{}{}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown service items").WithDetails(details)
	}
	return nil
}

// ToggleItem ticks or unticks one sub-item on an expanded line.
func (f *Flow) ToggleItem(serviceID int64, name string, selected bool) error {
	if f.state != enums.CheckoutStateItemSelection {
		return f.conflict("select item")
	}
	line, ok := f.store.Line(serviceID)
	if !ok {
		return cart.SignalNotFound.Err(serviceID)
	}
	found := false
	items := line.SelectedItems
	for i := range items {
		if items[i].Name == name {
			items[i].Selected = selected
			found = true
		}
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q is not offered for service %d", name, serviceID))
	}
	f.store.SetSelectedItems(serviceID, items)
	return nil
}

// ProceedToDetails leaves item selection. With RequireItemSelection every line
// must have at least one ticked sub-item.
func (f *Flow) ProceedToDetails() error {
	if f.state != enums.CheckoutStateItemSelection {
		return f.conflict("proceed to details")
	}
	if f.store.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if f.opts.RequireItemSelection {
		missing := map[string]string{}
		for _, line := range f.store.Lines() {
			if !line.HasSelection() {
				missing[fmt.Sprintf("%d", line.Service.ID)] = fmt.Sprintf("select at least one item for %s", line.Service.Name)
			}
		}
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "select items for every service").
				WithDetails(map[string]any{"services": missing})
		}
	}
	f.state = enums.CheckoutStateCustomerDetails
	return nil
}

// SetDetails records the customer form. Fields are trimmed; validation happens on submit.
func (f *Flow) SetDetails(details CustomerDetails) error {
	if !f.acceptsDetails() {
		return f.conflict("set details")
	}
	f.details = details.normalized()
	return nil
}

// AcceptTerms records the terms checkbox.
func (f *Flow) AcceptTerms(accepted bool) error {
	if !f.acceptsDetails() {
		return f.conflict("accept terms")
	}
	f.termsAccepted = accepted
	return nil
}

// ApplyCoupon replaces the applied coupon. Only allowed while entering customer
// details. An unknown code leaves any previous coupon in place.
func (f *Flow) ApplyCoupon(code string) (Totals, error) {
	if f.state != enums.CheckoutStateCustomerDetails {
		return f.Totals(), f.conflict("apply coupon")
	}
	c, err := f.coupons.Resolve(code)
	if err != nil {
		return f.Totals(), err
	}
	f.coupon = &c
	return f.Totals(), nil
}

// RemoveCoupon drops the applied coupon.
func (f *Flow) RemoveCoupon() error {
	if f.state != enums.CheckoutStateCustomerDetails {
		return f.conflict("remove coupon")
	}
	f.coupon = nil
	return nil
}

// Totals prices the current cart. The discount is recomputed against the live
// subtotal and capped at it, so the final total never goes below zero.
func (f *Flow) Totals() Totals {
	subtotal := f.store.TotalPrice()
	discount := decimal.Zero
	if f.coupon != nil {
		discount = decimal.Min(f.coupon.Discount(subtotal), subtotal)
	}
	return Totals{
		Subtotal:   subtotal,
		Discount:   discount,
		FinalTotal: decimal.Max(subtotal.Sub(discount), decimal.Zero),
	}
}

// Submit validates the draft and runs the pipeline. A validation failure keeps the
// current state; a pipeline failure moves to failed with the cart intact, from
// where Submit may be retried.
func (f *Flow) Submit(ctx context.Context) (*SubmitResult, error) {
	if !f.acceptsDetails() {
		return nil, f.conflict("submit")
	}
	if err := f.validateForSubmit(); err != nil {
		return nil, err
	}

	draft := f.draft()
	f.state = enums.CheckoutStateSubmitting
	f.lastError = ""

	result, err := f.submitter.Submit(ctx, draft, func() {
		f.store.Clear()
		f.cartOpen = false
	})
	if err != nil {
		f.state = enums.CheckoutStateFailed
		if typed := pkgerrors.As(err); typed != nil {
			f.lastError = typed.Message()
		} else {
			f.lastError = err.Error()
		}
		return nil, err
	}

	f.state = enums.CheckoutStateCompleted
	f.lastResult = result
	f.resetDraft()
	return result, nil
}

func (f *Flow) validateForSubmit() error {
	if f.store.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	details := map[string]any{}
	if missing := f.details.missingFields(); len(missing) > 0 {
		details["fields"] = missing
	}
	if !f.termsAccepted {
		details["terms"] = termsMessage
	}
	if len(details) == 0 {
		return nil
	}
	msg := "please fill in all required fields"
	if _, onlyTerms := details["terms"]; onlyTerms && len(details) == 1 {
		msg = termsMessage
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}

func (f *Flow) draft() OrderDraft {
	code := ""
	if f.coupon != nil {
		code = f.coupon.Code
	}
	return OrderDraft{
		Customer:   f.details,
		CouponCode: code,
		Lines:      f.store.Lines(),
		Totals:     f.Totals(),
	}
}

func (f *Flow) acceptsDetails() bool {
	return f.state == enums.CheckoutStateCustomerDetails || f.state == enums.CheckoutStateFailed
}

func (f *Flow) resetDraft() {
	f.details = CustomerDetails{}
	f.termsAccepted = false
	f.coupon = nil
}

func (f *Flow) conflict(action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s while checkout is %s", action, f.state)).
		WithDetails(map[string]any{"state": f.state})
}
