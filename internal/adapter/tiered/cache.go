// Package tiered layers an in-process cache over a shared remote one.
// Homeroom uses it for resolution hints when NATS is enabled: ristretto
// as L1, a JetStream KV bucket as L2.
package tiered

import (
	"context"
	"errors"
	"time"

	"github.com/homeroom-dev/homeroom/internal/port/cache"
)

// Cache combines an L1 (in-process) and L2 (remote) cache. Get checks
// L1 first and backfills it on an L2 hit; Set writes through both.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

// New creates a tiered cache. l1Expire bounds how long L2 backfill
// entries live in L1.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

// Get checks L1, then L2, backfilling L1 on an L2 hit.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		_ = c.l1.Set(ctx, key, val, c.l1Expire)
		return val, true, nil
	}

	return nil, false, nil
}

// Set writes to both levels.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.l2.Set(ctx, key, value, ttl)
}

// Delete removes the key from both levels. Both deletes are attempted
// even if the first fails; an entry left in L2 would be backfilled into
// L1 on the next lookup.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return errors.Join(c.l1.Delete(ctx, key), c.l2.Delete(ctx, key))
}
