package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeRedis scripts the three commands the counter issues and records every
// ExpireNX call.
type fakeRedis struct {
	count     int64
	ttl       time.Duration
	expireNXs []time.Duration
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.count++
	return redis.NewIntResult(f.count, nil)
}

func (f *fakeRedis) ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expireNXs = append(f.expireNXs, expiration)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) TTL(ctx context.Context, key string) *redis.DurationCmd {
	return redis.NewDurationResult(f.ttl, nil)
}

func testRedisCounter(backend *fakeRedis, capacity int) *RedisCounter {
	return &RedisCounter{
		client:   backend,
		capacity: capacity,
		window:   time.Minute,
	}
}

func TestRedisCounter_ArmsWindowOnFirstHit(t *testing.T) {
	ctx := context.Background()
	backend := &fakeRedis{}
	counter := testRedisCounter(backend, 2)

	allowed, _, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, []time.Duration{time.Minute}, backend.expireNXs)

	allowed, _, err = counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Len(t, backend.expireNXs, 1)
}

func TestRedisCounter_RejectsWithBackendTTL(t *testing.T) {
	ctx := context.Background()
	backend := &fakeRedis{count: 2, ttl: 42 * time.Second}
	counter := testRedisCounter(backend, 2)

	allowed, retryAfter, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 42, retryAfter)
}

func TestRedisCounter_ReArmsLostTTL(t *testing.T) {
	ctx := context.Background()

	// A key stranded without a TTL (redis reports -1) must get its window
	// re-armed so the caller is not rejected forever.
	backend := &fakeRedis{count: 5, ttl: -1}
	counter := testRedisCounter(backend, 2)

	allowed, retryAfter, err := counter.Allow(ctx, "caller-1")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 60, retryAfter)
	require.Equal(t, []time.Duration{time.Minute}, backend.expireNXs)
}
