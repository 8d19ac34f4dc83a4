package cache

import (
	"context"
	"time"
)

// LayeredCache checks a fast local layer before a shared one (memory + Redis)
type LayeredCache struct {
	local  Cache
	shared Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(local, shared Cache) *LayeredCache {
	return &LayeredCache{local: local, shared: shared}
}

// Get checks the local layer first, then the shared one
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.local.Get(ctx, key); found {
		return val, true
	}

	if val, found := c.shared.Get(ctx, key); found {
		// Promote to the local layer
		_ = c.local.Set(ctx, key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers. The local copy always uses the local
// layer's default expiration, so replicas converge on the shared value.
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, value, 0); err != nil {
		return err
	}
	return c.shared.Set(ctx, key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.local.Delete(ctx, key)
	return c.shared.Delete(ctx, key)
}

func (c *LayeredCache) DeletePrefix(ctx context.Context, prefix string) error {
	_ = c.local.DeletePrefix(ctx, prefix)
	return c.shared.DeletePrefix(ctx, prefix)
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.local.Clear(ctx)
	return c.shared.Clear(ctx)
}
