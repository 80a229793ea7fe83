package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores cache entries in a Redis instance.
// Useful when multiple hosts or processes should share one response cache.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis at addr and verifies the connection.
// All keys are stored under the given prefix (e.g. "gitscrape:").
func NewRedisCache(ctx context.Context, addr, prefix string) (Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

// Get retrieves a value from Redis. Expiration is handled by Redis TTLs,
// so any value present is considered fresh.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value with the given TTL. A ttl of 0 stores without expiration.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// Delete removes a value. Missing keys are not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Close closes the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
