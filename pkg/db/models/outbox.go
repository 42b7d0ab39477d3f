package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fabguard/storefront-backend/pkg/types"
)

// OutboxEvent is a message waiting to be published to Pub/Sub.
type OutboxEvent struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Topic        string          `gorm:"column:topic;not null"`
	EventType    string          `gorm:"column:event_type;not null"`
	AggregateID  string          `gorm:"column:aggregate_id;not null"`
	Payload      string          `gorm:"column:payload;type:text;not null"`
	Attributes   types.StringMap `gorm:"column:attributes;type:text;not null"`
	AttemptCount int             `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string         `gorm:"column:last_error"`
	PublishedAt  *time.Time      `gorm:"column:published_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
