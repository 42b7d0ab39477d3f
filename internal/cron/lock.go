package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/fabguard/storefront-backend/pkg/redis"
)

// The lock outlives a normal maintenance cycle but lapses before the next
// hourly tick if the owning worker dies mid-run.
const defaultLockTTL = 55 * time.Minute

const defaultLockHolder = "cron-worker"

// Lock gates a maintenance cycle to one worker instance.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock stores "<holder>/<token>" under key with SETNX. The token is
// fresh per acquisition so a worker whose lock expired never deletes the
// next owner's entry.
type RedisLock struct {
	client redisStore
	key    string
	holder string
	ttl    time.Duration
	token  string
}

// NewRedisLock builds the worker lock. holder names the instance in the
// stored value and defaults to "cron-worker".
func NewRedisLock(client redisStore, key, holder string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		holder = defaultLockHolder
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, holder: holder, ttl: ttl}, nil
}

func (l *RedisLock) value(token string) string { return l.holder + "/" + token }

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, l.value(token), l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release is a no-op unless this lock still owns the key.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	current, err := l.client.Get(ctx, l.key)
	switch {
	case errors.Is(err, pkgredis.ErrMiss):
		l.token = ""
		return nil
	case err != nil:
		return fmt.Errorf("read lock owner: %w", err)
	}
	if current != l.value(l.token) {
		l.token = ""
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.token = ""
	return nil
}

// HeldBy reports the holder currently owning the key, or "" when it is free.
func (l *RedisLock) HeldBy(ctx context.Context) (string, error) {
	current, err := l.client.Get(ctx, l.key)
	if errors.Is(err, pkgredis.ErrMiss) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read lock owner: %w", err)
	}
	holder, _, _ := strings.Cut(current, "/")
	return holder, nil
}
