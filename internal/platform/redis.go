package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wisbric/relaykey/internal/policycache"
)

// NewRedisClient creates a Redis client from the given URL.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// RedisPinger adapts *redis.Client to domain.Pinger.
type RedisPinger struct {
	Client *redis.Client
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

// ScriptEvaler adapts *redis.Client's Eval (which returns a *redis.Cmd) to
// the plain (interface{}, error) shape ratelimit.Evaler and retry.Evaler
// expect.
type ScriptEvaler struct {
	Client *redis.Client
}

func (e ScriptEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return e.Client.Eval(ctx, script, keys, args...).Result()
}

// PolicyCacheClient adapts *redis.Client to policycache.Client, translating
// redis.Nil to the package's cache-miss sentinel.
type PolicyCacheClient struct {
	Client *redis.Client
}

func (c PolicyCacheClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", policycache.ErrCacheMiss
	}
	return v, err
}

func (c PolicyCacheClient) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}
