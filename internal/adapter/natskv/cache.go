// Package natskv implements the cache port on a NATS JetStream KV
// bucket. It serves as the shared L2 behind the in-process cache so
// multiple homeroom instances warm each other's resolution hints.
package natskv

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Cache wraps a JetStream KeyValue bucket.
type Cache struct {
	kv jetstream.KeyValue
}

// New returns a Cache over the given bucket. Entry lifetime follows the
// bucket TTL; the per-entry ttl passed to Set is ignored.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// Get retrieves a value. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Set stores a value under key.
func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Put(ctx, key, value)
	return err
}

// Delete removes a key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
