package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open connects to url and verifies the connection. An empty url returns a
// nil client so callers can run without Redis.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Limiter is a fixed-window counter per key.
type Limiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Allow counts one hit for key. A nil Limiter or a non-positive limit always
// allows.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l == nil || l.Redis == nil || l.Limit <= 0 {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	k := l.Prefix + ":" + key
	n, err := l.Redis.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit: %w", err)
	}
	if n == 1 {
		if err := l.Redis.Expire(ctx, k, l.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	if int(n) > l.Limit {
		retry, err := l.Redis.PTTL(ctx, k).Result()
		if err != nil || retry <= 0 {
			retry = l.Window
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}
	return Decision{Allowed: true, Remaining: l.Limit - int(n)}, nil
}

// JSONCache stores small JSON documents with a TTL.
type JSONCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func (c *JSONCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.Redis == nil {
		return nil, false, nil
	}
	b, err := c.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *JSONCache) Set(ctx context.Context, key string, value []byte) error {
	if c == nil || c.Redis == nil || c.TTL <= 0 {
		return nil
	}
	return c.Redis.Set(ctx, key, value, c.TTL).Err()
}
