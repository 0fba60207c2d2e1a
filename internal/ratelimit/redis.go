package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the slice of the redis API the counter uses. *redis.Client
// satisfies it.
type redisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisCounter is the shared counter for multi-instance deployments: an
// atomic INCR per window key with a TTL armed on the first hit.
type RedisCounter struct {
	client   redisClient
	capacity int
	window   time.Duration
}

func NewRedisCounter(client *redis.Client, capacity int, window time.Duration) *RedisCounter {
	return &RedisCounter{
		client:   client,
		capacity: capacity,
		window:   window,
	}
}

func (c *RedisCounter) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := "ratelimit:" + key

	count, err := c.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate counter: %w", err)
	}

	if count == 1 {
		if err := c.client.ExpireNX(ctx, redisKey, c.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate counter ttl: %w", err)
		}
	}

	if count <= int64(c.capacity) {
		return true, 0, nil
	}

	ttl, err := c.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, int(c.window.Seconds()), nil
	}

	// A key without a TTL would reject its caller forever: the first hit's
	// EXPIRE can be lost when it errors after the INCR succeeded. Re-arm the
	// window instead of trusting it.
	if ttl < 0 {
		if err := c.client.ExpireNX(ctx, redisKey, c.window).Err(); err != nil {
			return false, int(c.window.Seconds()), nil
		}
		return false, int(c.window.Seconds()), nil
	}

	return false, int(ttl.Seconds()), nil
}
