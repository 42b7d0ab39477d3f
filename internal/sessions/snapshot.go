package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	pkgredis "github.com/fabguard/storefront-backend/pkg/redis"
)

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Lines     []cart.Line       `json:"lines"`
	Flow      checkout.Snapshot `json:"flow"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SnapshotStore persists session snapshots between process restarts.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snap Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// RedisSnapshots stores snapshots as JSON under the session key.
type RedisSnapshots struct {
	client redisClient
}

// NewRedisSnapshots wraps the redis client.
func NewRedisSnapshots(client redisClient) *RedisSnapshots {
	return &RedisSnapshots{client: client}
}

// Load returns nil when no snapshot exists.
func (r *RedisSnapshots) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	raw, err := r.client.Get(ctx, r.client.SessionKey(sessionID))
	if errors.Is(err, pkgredis.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &snap, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, sessionID string, snap Snapshot, ttl time.Duration) error {
	buf, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	return r.client.Set(ctx, r.client.SessionKey(sessionID), string(buf), ttl)
}

func (r *RedisSnapshots) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.client.SessionKey(sessionID))
}
