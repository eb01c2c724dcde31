// Package cache stores downloaded reference datasets between lookups.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/agentchat/internal/config"
	"github.com/soyeahso/agentchat/internal/store"
)

// Cache is a byte-oriented key/value cache with per-entry TTL.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value; ttl of 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the cache selected by cfg.Store. db backs the "sqlite" store
// and may be nil for the others.
func Open(ctx context.Context, cfg config.CacheConfig, db *store.DB) (Cache, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		if db == nil {
			return nil, fmt.Errorf("cache: sqlite store requires a database")
		}
		return store.NewCache(db), nil
	case "redis":
		return NewRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("cache: unknown store %q", cfg.Store)
	}
}
