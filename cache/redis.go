package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AltairaLabs/beliefbench/types"
)

const defaultTTLHours = 24 * 30 // samples are content-addressed; default to a long TTL

// RedisCache is a Redis-backed Cache implementation, suitable for sharing a
// sample cache across multiple run processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithTTL sets the time-to-live for cached samples. Default is 30 days.
// Set to 0 for no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for Redis keys. Default is "beliefbench".
func WithPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// NewRedisCache creates a new Redis-backed sample cache.
//
// Example:
//
//	c := cache.NewRedisCache(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    cache.WithTTL(30 * 24 * time.Hour),
//	)
func NewRedisCache(client *redis.Client, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    defaultTTLHours * time.Hour,
		prefix: "beliefbench",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *RedisCache) sampleKey(cacheKey string) string {
	return fmt.Sprintf("%s:sample:%s", c.prefix, cacheKey)
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*types.Sample, bool, error) {
	if key == "" {
		return nil, false, ErrInvalidKey
	}

	data, err := c.client.Get(ctx, c.sampleKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var sample types.Sample
	if err := json.Unmarshal(data, &sample); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal sample: %w", err)
	}

	return &sample, true, nil
}

// Put implements Cache.
func (c *RedisCache) Put(ctx context.Context, sample *types.Sample) error {
	if sample == nil || sample.CacheKey == "" {
		return ErrInvalidKey
	}

	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	if err := c.client.Set(ctx, c.sampleKey(sample.CacheKey), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}
