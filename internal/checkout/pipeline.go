package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/metrics"
)

const (
	defaultOrderIDPrefix = "ORDER"
	defaultSubmitTimeout = 15 * time.Second

	messageCompleted       = "Order placed successfully. We will contact you shortly to confirm."
	messageNotifyDegraded  = "Order placed, but the admin notification could not be sent. We will still contact you."
	messagePersistenceDown = "We could not place your order. Please try again."
)

// OrderCreator persists a draft. Any error aborts the submission.
type OrderCreator interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (*OrderRecord, error)
}

// Notifier tells the business about a stored order. Errors are reported, never fatal.
// A notifier may return a receipt alongside an error when only part of it failed.
type Notifier interface {
	SendOrderNotification(ctx context.Context, n OrderNotification) (*NotificationReceipt, error)
}

// PipelineOptions tunes the submission pipeline. Zero values fall back to defaults.
type PipelineOptions struct {
	OrderIDPrefix string
	Timeout       time.Duration
	FeedbackURL   string
	Clock         func() time.Time
	Logger        *logger.Logger
	Metrics       *metrics.CheckoutMetrics
}

// SubmitResult describes a submission that got past persistence.
type SubmitResult struct {
	Persisted         bool   `json:"persisted"`
	OrderID           string `json:"order_id"`
	RecordID          string `json:"record_id"`
	CustomerID        string `json:"customer_id"`
	NotificationLink  string `json:"notification_link,omitempty"`
	NotificationError error  `json:"-"`
	FeedbackURL       string `json:"feedback_url,omitempty"`
	Message           string `json:"message"`
}

// NotificationFailed reports whether the order was stored but the admin was not told.
func (r *SubmitResult) NotificationFailed() bool {
	return r != nil && r.NotificationError != nil
}

// Pipeline runs persist, notify and clear in that order.
type Pipeline struct {
	orders   OrderCreator
	notifier Notifier
	prefix   string
	timeout  time.Duration
	feedback string
	now      func() time.Time
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
}

// NewPipeline validates dependencies and applies option defaults.
func NewPipeline(orders OrderCreator, notifier Notifier, opts PipelineOptions) (*Pipeline, error) {
	if orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	p := &Pipeline{
		orders:   orders,
		notifier: notifier,
		prefix:   strings.TrimSpace(opts.OrderIDPrefix),
		timeout:  opts.Timeout,
		feedback: opts.FeedbackURL,
		now:      opts.Clock,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
	}
	if p.prefix == "" {
		p.prefix = defaultOrderIDPrefix
	}
	if p.timeout <= 0 {
		p.timeout = defaultSubmitTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logg == nil {
		p.logg = logger.Nop()
	}
	return p, nil
}

// Submit stores the draft, notifies the admin and finally calls clear. Once started
// it ignores caller cancellation; the order write and the notification each get
// their own timeout.
// Retrying after a failure mints a new identifier; there is no dedup.
func (p *Pipeline) Submit(ctx context.Context, draft OrderDraft, clear func()) (*SubmitResult, error) {
	started := p.now()
	ctx = context.WithoutCancel(ctx)

	draft.PlacedAt = started
	draft.Reference = fmt.Sprintf("%s-%d", p.prefix, started.UnixMilli())
	ctx = p.logg.WithOrderID(ctx, draft.Reference)

	persistCtx, cancelPersist := context.WithTimeout(ctx, p.timeout)
	record, err := p.orders.CreateOrder(persistCtx, draft)
	cancelPersist()
	if err != nil {
		p.logg.Error(ctx, "checkout.order.persist_failed", err)
		p.metrics.ObserveSubmission(metrics.OutcomePersistFailed, p.now().Sub(started))
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodePersistence {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, messagePersistenceDown)
	}
	if record == nil {
		record = &OrderRecord{}
	}
	p.logg.Info(p.logg.WithField(ctx, "customer_id", record.CustomerID), "checkout.order.persisted")

	result := &SubmitResult{
		Persisted:   true,
		OrderID:     draft.Reference,
		RecordID:    record.OrderID,
		CustomerID:  record.CustomerID,
		FeedbackURL: p.feedback,
		Message:     messageCompleted,
	}

	notifyCtx, cancelNotify := context.WithTimeout(ctx, p.timeout)
	receipt, err := p.notifier.SendOrderNotification(notifyCtx, OrderNotification{
		OrderID:    draft.Reference,
		CustomerID: record.CustomerID,
		Draft:      draft,
	})
	cancelNotify()
	if receipt != nil {
		result.NotificationLink = receipt.Link
	}
	if err != nil {
		result.NotificationError = pkgerrors.Wrap(pkgerrors.CodeNotification, err, "admin notification failed")
		result.Message = messageNotifyDegraded
		p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "checkout.notification.failed")
	}

	if clear != nil {
		clear()
	}

	p.metrics.ObserveSubmission(metrics.OutcomeCompleted, p.now().Sub(started))
	p.logg.Info(ctx, "checkout.order.completed")
	return result, nil
}
