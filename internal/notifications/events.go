package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ChannelPubSub = "pubsub"

	EventOrderPlaced = "order.placed"
	eventVersion     = 1
)

// Publisher is the subset of the pubsub client used for order events.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// EventEnvelope wraps every published event.
type EventEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// OrderPlacedEvent is the data of an order.placed event.
type OrderPlacedEvent struct {
	OrderID    string                   `json:"orderId"`
	CustomerID string                   `json:"customerId"`
	Customer   checkout.CustomerDetails `json:"customer"`
	Lines      []OrderPlacedLine        `json:"lines"`
	CouponCode string                   `json:"couponCode,omitempty"`
	Subtotal   decimal.Decimal          `json:"subtotal"`
	Discount   decimal.Decimal          `json:"discount"`
	FinalTotal decimal.Decimal          `json:"finalTotal"`
}

// OrderPlacedLine is one booked service in an order.placed event.
type OrderPlacedLine struct {
	ServiceID     int64           `json:"serviceId"`
	ServiceName   string          `json:"serviceName"`
	Price         decimal.Decimal `json:"price"`
	SelectedItems []string        `json:"selectedItems"`
}

// EventNotifier publishes an order.placed event for downstream consumers.
type EventNotifier struct {
	publisher Publisher
	topic     string
	now       func() time.Time
}

// NewEventNotifier binds the notifier to a topic.
func NewEventNotifier(publisher Publisher, topic string) (*EventNotifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic required")
	}
	return &EventNotifier{publisher: publisher, topic: topic, now: time.Now}, nil
}

func (e *EventNotifier) Channel() string { return ChannelPubSub }

func (e *EventNotifier) SendOrderNotification(ctx context.Context, n checkout.OrderNotification) (*checkout.NotificationReceipt, error) {
	envelope, err := buildOrderPlaced(n, e.now())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	_, err = e.publisher.Publish(ctx, e.topic, body, map[string]string{
		"event_type": EventOrderPlaced,
		"event_id":   envelope.EventID,
		"order_id":   n.OrderID,
	})
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", EventOrderPlaced, err)
	}
	return nil, nil
}

func buildOrderPlaced(n checkout.OrderNotification, now time.Time) (EventEnvelope, error) {
	lines := make([]OrderPlacedLine, 0, len(n.Draft.Lines))
	for _, line := range n.Draft.Lines {
		selected := line.SelectedNames()
		if selected == nil {
			selected = []string{}
		}
		lines = append(lines, OrderPlacedLine{
			ServiceID:     line.Service.ID,
			ServiceName:   line.Service.Name,
			Price:         line.Service.Price,
			SelectedItems: selected,
		})
	}
	data, err := json.Marshal(OrderPlacedEvent{
		OrderID:    n.OrderID,
		CustomerID: n.CustomerID,
		Customer:   n.Draft.Customer,
		Lines:      lines,
		CouponCode: n.Draft.CouponCode,
		Subtotal:   n.Draft.Totals.Subtotal,
		Discount:   n.Draft.Totals.Discount,
		FinalTotal: n.Draft.Totals.FinalTotal,
	})
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal order placed: %w", err)
	}
	occurred := n.Draft.PlacedAt
	if occurred.IsZero() {
		occurred = now
	}
	return EventEnvelope{
		Version:    eventVersion,
		EventID:    uuid.NewString(),
		EventType:  EventOrderPlaced,
		OccurredAt: occurred.UTC(),
		Data:       data,
	}, nil
}
