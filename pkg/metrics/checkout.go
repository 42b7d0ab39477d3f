package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by CheckoutMetrics.
const (
	OutcomeCompleted        = "completed"
	OutcomePersistFailed    = "persist_failed"
	OutcomeValidationFailed = "validation_failed"
)

// CheckoutMetrics records order submission and notification outcomes.
type CheckoutMetrics struct {
	duration      *prometheus.HistogramVec
	submissions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	cartMutations *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "order_submit_duration_seconds",
		Help:      "Duration of the order submission pipeline in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "order_submissions_total",
		Help:      "Order submissions by outcome.",
	}, []string{"outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "order_notifications_total",
		Help:      "Admin notifications by channel and result.",
	}, []string{"channel", "result"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "cart_mutations_total",
		Help:      "Cart store mutations by operation and signal.",
	}, []string{"op", "signal"})
	reg.MustRegister(duration, submissions, notifications, cartMutations)
	return &CheckoutMetrics{
		duration:      duration,
		submissions:   submissions,
		notifications: notifications,
		cartMutations: cartMutations,
	}
}

// ObserveSubmission records one pipeline run.
func (c *CheckoutMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if c == nil || c.submissions == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.submissions.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncNotification counts a notification attempt for the channel.
func (c *CheckoutMetrics) IncNotification(channel string, ok bool) {
	if c == nil || c.notifications == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	c.notifications.WithLabelValues(normalizeLabel(channel), result).Inc()
}

// IncCartMutation counts a cart store operation and the signal it produced.
func (c *CheckoutMetrics) IncCartMutation(op, signal string) {
	if c == nil || c.cartMutations == nil {
		return
	}
	c.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(signal)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
