// Package cache keeps per-tenant action allow-lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

// KeyPrefix namespaces allow-list entries.
const KeyPrefix = "watchsummary:actions:"

// ErrMiss is returned by Get when no entry exists for the tenant.
var ErrMiss = errors.New("cache miss")

// ActionNamesCache stores the allow-lists of a tenant as one JSON value.
// A disabled cache misses on every Get and ignores writes.
type ActionNamesCache struct {
	redis   *redis.Client
	ttl     time.Duration
	enabled bool
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration, enabled bool) *ActionNamesCache {
	return &ActionNamesCache{redis: client, ttl: ttl, enabled: enabled}
}

// Connect parses redisURL, pings the server and returns a ready cache.
func Connect(ctx context.Context, redisURL string, ttl time.Duration) (*ActionNamesCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return New(client, ttl, true), nil
}

// IsEnabled reports whether reads and writes reach Redis.
func (c *ActionNamesCache) IsEnabled() bool {
	return c != nil && c.enabled && c.redis != nil
}

// Key returns the Redis key of tenant.
func Key(tenant string) string {
	return KeyPrefix + tenant
}

// Get returns the cached allow-lists of tenant or ErrMiss.
func (c *ActionNamesCache) Get(ctx context.Context, tenant string) ([]models.WatchActionNames, error) {
	if !c.IsEnabled() {
		return nil, ErrMiss
	}
	data, err := c.redis.Get(ctx, Key(tenant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read allow-list cache: %w", err)
	}

	var defs []models.WatchActionNames
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to decode allow-list cache: %w", err)
	}
	return defs, nil
}

// Set stores the allow-lists of tenant for the configured TTL.
func (c *ActionNamesCache) Set(ctx context.Context, tenant string, defs []models.WatchActionNames) error {
	if !c.IsEnabled() {
		return nil
	}
	if defs == nil {
		defs = []models.WatchActionNames{}
	}
	data, err := json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("failed to encode allow-list cache: %w", err)
	}
	if err := c.redis.Set(ctx, Key(tenant), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write allow-list cache: %w", err)
	}
	return nil
}

// Invalidate drops the entry of tenant, e.g. after definitions changed.
func (c *ActionNamesCache) Invalidate(ctx context.Context, tenant string) error {
	if !c.IsEnabled() {
		return nil
	}
	return c.redis.Del(ctx, Key(tenant)).Err()
}

// Ping checks the Redis connection. A disabled cache is always healthy.
func (c *ActionNamesCache) Ping(ctx context.Context) error {
	if !c.IsEnabled() {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *ActionNamesCache) Close() error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Close()
}
