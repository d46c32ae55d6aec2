package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested path was not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// keyPrefix namespaces cache entries in a shared Redis instance.
const keyPrefix = "honeycomb:meta:"

// DefaultTTL bounds how stale a cached listing may be.
const DefaultTTL = 60 * time.Second

// Manager caches raw listing responses in Redis, keyed by request path.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a cache manager. A non-positive TTL uses DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves the cached response body for a request path.
// Returns ErrCacheMiss if the path is not cached or the entry expired.
func (m *Manager) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := m.redis.Get(ctx, keyPrefix+path).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.Inc()
	return data, nil
}

// Set stores a response body for a request path with the configured TTL.
func (m *Manager) Set(ctx context.Context, path string, body []byte) error {
	if err := m.redis.Set(ctx, keyPrefix+path, body, m.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate removes a cached path, forcing the next read through to the API.
func (m *Manager) Invalidate(ctx context.Context, path string) error {
	if err := m.redis.Del(ctx, keyPrefix+path).Err(); err != nil {
		CacheErrors.WithLabelValues("del").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
