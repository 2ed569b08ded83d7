package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// ResponseCache keeps generated answers as plain string keys with a TTL.
//
// Key schema:
//
//	{prefix}answer:{cache key} - answer text
type ResponseCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResponseCache creates a cache on c. A ttl <= 0 uses the default.
func NewResponseCache(c *Client, prefix string, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ResponseCache{rdb: c.rdb, prefix: prefix, ttl: ttl}
}

func (rc *ResponseCache) key(k string) string { return rc.prefix + "answer:" + k }

// Get returns the cached answer for key.
func (rc *ResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := rc.rdb.Get(ctx, rc.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get answer: %w", err)
	}
	return v, true, nil
}

// Set stores an answer with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key, value string) error {
	if err := rc.rdb.Set(ctx, rc.key(key), value, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set answer: %w", err)
	}
	return nil
}
