package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func sampleNotification() checkout.OrderNotification {
	return checkout.OrderNotification{
		OrderID:    "ORDER-1748773800000",
		CustomerID: "cust-1",
		Draft: checkout.OrderDraft{
			Reference: "ORDER-1748773800000",
			PlacedAt:  time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
			Customer: checkout.CustomerDetails{
				Name:    "Asha Verma",
				Email:   "asha@example.com",
				Phone:   "9876543210",
				Address: "12 MG Road",
			},
			CouponCode: "SAVE10",
			Lines: []cart.Line{{
				Service:       cart.Service{ID: 1, Name: "Plumbing Services", Price: decimal.NewFromInt(150)},
				Quantity:      1,
				SelectedItems: []cart.SelectedItem{{Name: "GULLY TRAP", Selected: true}, {Name: "TOILET JET"}},
			}, {
				Service:  cart.Service{ID: 2, Name: "Electrical Services", Price: decimal.NewFromInt(150)},
				Quantity: 1,
			}},
			Totals: checkout.Totals{
				Subtotal:   decimal.NewFromInt(300),
				Discount:   decimal.NewFromInt(10),
				FinalTotal: decimal.NewFromInt(290),
			},
		},
	}
}

func TestFormatOrderMessage(t *testing.T) {
	msg := FormatOrderMessage(sampleNotification())

	assert.True(t, strings.HasPrefix(msg, "🔔 *NEW ORDER RECEIVED* 🔔"))
	assert.Contains(t, msg, "Order ID: ORDER-1748773800000")
	assert.Contains(t, msg, "• Plumbing Services - ₹150\n   Items: GULLY TRAP\n")
	assert.Contains(t, msg, "• Electrical Services - ₹150\n")
	assert.Contains(t, msg, "Total Amount: ₹300")
	assert.Contains(t, msg, "Discount: ₹10")
	assert.Contains(t, msg, "Coupon Code: SAVE10")
	assert.Contains(t, msg, "Final Amount: ₹290")
	assert.NotContains(t, msg, "Customer Note")
	assert.True(t, strings.HasSuffix(msg, "Please contact the customer to confirm the order."))
}

func TestFormatOrderMessageOmitsEmptyDiscount(t *testing.T) {
	n := sampleNotification()
	n.Draft.CouponCode = ""
	n.Draft.Totals.Discount = decimal.Zero
	n.Draft.Customer.Note = "Call before coming"

	msg := FormatOrderMessage(n)
	assert.NotContains(t, msg, "Discount:")
	assert.NotContains(t, msg, "Coupon Code:")
	assert.Contains(t, msg, "📝 *Customer Note:*\nCall before coming")
}

func TestWhatsAppNotifierLink(t *testing.T) {
	_, err := NewWhatsAppNotifier(" + ")
	require.Error(t, err)

	w, err := NewWhatsAppNotifier("+91 72629 27177")
	require.NoError(t, err)

	receipt, err := w.SendOrderNotification(context.Background(), sampleNotification())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(receipt.Link, "https://wa.me/917262927177?text="))
	assert.NotContains(t, receipt.Link, "+")

	parsed, err := url.Parse(receipt.Link)
	require.NoError(t, err)
	assert.Equal(t, FormatOrderMessage(sampleNotification()), parsed.Query().Get("text"))
}

type recordingPublisher struct {
	topic string
	data  []byte
	attrs map[string]string
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	p.topic, p.data, p.attrs = topic, data, attrs
	if p.err != nil {
		return "", p.err
	}
	return "msg-1", nil
}

func TestEventNotifierPublishesOrderPlaced(t *testing.T) {
	pub := &recordingPublisher{}
	e, err := NewEventNotifier(pub, "fg-order-events")
	require.NoError(t, err)

	receipt, err := e.SendOrderNotification(context.Background(), sampleNotification())
	require.NoError(t, err)
	assert.Nil(t, receipt)
	assert.Equal(t, "fg-order-events", pub.topic)
	assert.Equal(t, EventOrderPlaced, pub.attrs["event_type"])
	assert.Equal(t, "ORDER-1748773800000", pub.attrs["order_id"])

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(pub.data, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, pub.attrs["event_id"], envelope.EventID)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC), envelope.OccurredAt)

	var event OrderPlacedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &event))
	assert.Equal(t, "cust-1", event.CustomerID)
	require.Len(t, event.Lines, 2)
	assert.Equal(t, []string{"GULLY TRAP"}, event.Lines[0].SelectedItems)
	assert.Equal(t, []string{}, event.Lines[1].SelectedItems)
	assert.True(t, decimal.NewFromInt(290).Equal(event.FinalTotal))
}

func TestEventNotifierPublishFailure(t *testing.T) {
	e, err := NewEventNotifier(&recordingPublisher{err: errors.New("topic missing")}, "t")
	require.NoError(t, err)
	_, err = e.SendOrderNotification(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "topic missing")

	_, err = NewEventNotifier(nil, "t")
	assert.Error(t, err)
	_, err = NewEventNotifier(&recordingPublisher{}, "")
	assert.Error(t, err)
}

type stubChannel struct {
	name string
	link string
	err  error
}

func (s stubChannel) Channel() string { return s.name }

func (s stubChannel) SendOrderNotification(context.Context, checkout.OrderNotification) (*checkout.NotificationReceipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.link == "" {
		return nil, nil
	}
	return &checkout.NotificationReceipt{Link: s.link}, nil
}

func TestFanoutCombinesErrorsAndKeepsLink(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)
	f, err := NewFanout(nil, m,
		stubChannel{name: "pubsub", err: errors.New("unavailable")},
		stubChannel{name: "whatsapp", link: "https://wa.me/1?text=x"},
		stubChannel{name: "sms", err: errors.New("quota")},
	)
	require.NoError(t, err)

	receipt, err := f.SendOrderNotification(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorContains(t, err, "pubsub: unavailable")
	require.NotNil(t, receipt)
	assert.Equal(t, "https://wa.me/1?text=x", receipt.Link)

	series, err := testutil.GatherAndCount(reg, "storefront_order_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
}

func TestFanoutAllHealthy(t *testing.T) {
	f, err := NewFanout(nil, nil, stubChannel{name: "pubsub"}, stubChannel{name: "whatsapp", link: "l"})
	require.NoError(t, err)
	receipt, err := f.SendOrderNotification(context.Background(), sampleNotification())
	require.NoError(t, err)
	assert.Equal(t, "l", receipt.Link)

	_, err = NewFanout(nil, nil)
	assert.Error(t, err)
}
