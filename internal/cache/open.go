package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/aivis/internal/model"
)

// New builds the report cache from config: nil when disabled, memory only
// without a Redis address, memory in front of Redis otherwise.
// The Redis client is returned so the scheduler can share it for locking.
func New(ctx context.Context, cfg model.CacheConfig) (Cache, *redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cfg.RedisAddr == "" {
		return NewMemoryCache(ttl, 10*time.Minute), nil, nil
	}

	rdb, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	// The local layer expires sooner so replicas converge on invalidations.
	local := NewMemoryCache(min(ttl, 30*time.Second), time.Minute)
	return NewLayeredCache(local, NewRedisCache(rdb, ttl)), rdb, nil
}
