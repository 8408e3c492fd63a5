// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. Implementations may
// evict entries at any time; callers must treat every Get as a hint, not
// a source of truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
