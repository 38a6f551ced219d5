package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache stores content verdicts as JSON values with a native TTL
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisCache wraps a redis client. Keys are namespaced with prefix.
func NewRedisCache(client *redis.Client, prefix string, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

func (c *RedisCache) key(senderEmail string) string {
	return c.prefix + senderEmail
}

// Get retrieves a cached entry for a sender
func (c *RedisCache) Get(ctx context.Context, senderEmail string) (*core.CacheEntry, error) {
	raw, err := c.client.Get(ctx, c.key(senderEmail)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry core.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if !c.now().Before(entry.ExpiresAt) {
		return nil, core.ErrCacheMiss
	}
	return &entry, nil
}

// Set stores a cache entry until its expiry time
func (c *RedisCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	ttl := entry.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(entry.SenderEmail), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *RedisCache) Delete(ctx context.Context, senderEmail string) error {
	if err := c.client.Del(ctx, c.key(senderEmail)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup is a no-op, redis expires keys itself
func (c *RedisCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the redis client
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close redis client", zap.Error(err))
	}
}
