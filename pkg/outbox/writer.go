package outbox

import (
	"context"
	"errors"
	"strings"

	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/types"
)

// Attribute keys the writer lifts into indexed columns.
const (
	AttrEventType   = "event_type"
	AttrOrderID     = "order_id"
	AttrAggregateID = "aggregate_id"
)

// Writer queues messages in the outbox table instead of publishing them. It has
// the same shape as the Pub/Sub client so notification channels can use either.
type Writer struct {
	repo *Repository
	logg *logger.Logger
}

func NewWriter(repo *Repository, logg *logger.Logger) (*Writer, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Writer{repo: repo, logg: logg}, nil
}

// Publish stores the message and returns the outbox row id.
func (w *Writer) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", errors.New("topic required")
	}
	copied := make(types.StringMap, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	aggregateID := copied[AttrOrderID]
	if aggregateID == "" {
		aggregateID = copied[AttrAggregateID]
	}
	row := &models.OutboxEvent{
		Topic:       topic,
		EventType:   copied[AttrEventType],
		AggregateID: aggregateID,
		Payload:     string(data),
		Attributes:  copied,
	}
	if err := w.repo.Insert(ctx, row); err != nil {
		return "", err
	}

	w.logg.Info(w.logg.WithFields(ctx, map[string]any{
		"outbox_id":    row.ID.String(),
		"topic":        topic,
		"event_type":   row.EventType,
		"aggregate_id": row.AggregateID,
	}), "outbox event queued")
	return row.ID.String(), nil
}
