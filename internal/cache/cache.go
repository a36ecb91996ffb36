// Package cache holds the key/value cache and event publisher used by the services.
// Redis backs both in production; the memory variant serves tests and redis-less setups.
package cache

import (
	"context"
	"errors"
	"time"
)

const CACHE_TTL_SHORT = 5 * time.Minute

var ErrCacheMiss = errors.New("cache miss")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Backend is satisfied by every store in this package.
type Backend interface {
	Store
	Publisher
}
