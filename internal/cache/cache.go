// Package cache provides a small byte-value cache with TTL used by the
// event-listing path. A memory backend is always available; a Redis
// backend is used when configured, falling back to memory when Redis is
// unreachable at startup.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache stores opaque byte values under string keys with a TTL.
type Cache interface {
	// Get returns the cached value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Flush removes every entry owned by this cache.
	Flush(ctx context.Context)
	// Close releases backend resources.
	Close()
}

// Config holds cache configuration.
type Config struct {
	RedisURL   string        // Empty selects the memory backend
	Prefix     string        // Redis key prefix
	DefaultTTL time.Duration // Applied when Set receives ttl <= 0
}

// New creates a cache from config. When a Redis URL is configured but the
// server is unreachable, the memory backend is used instead and a warning
// is logged.
func New(cfg Config, logger *slog.Logger) Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * time.Second
	}

	if cfg.RedisURL != "" {
		redis, err := NewRedis(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			logger.Info("cache backend ready", "backend", "redis")
			return redis
		}
		logger.Warn("redis unavailable, falling back to memory cache", "error", err)
	}

	return NewMemory(cfg.DefaultTTL)
}
