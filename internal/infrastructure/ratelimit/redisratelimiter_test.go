package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisRateLimiter_PerMinute(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 5}

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "ingest:10.0.0.1", limits)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "ingest:10.0.0.1", limits)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")
}

func TestRedisRateLimiter_RejectedRequestsAreNotCounted(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 2}

	for i := 0; i < 6; i++ {
		_, err := limiter.Allow(ctx, "k", limits)
		require.NoError(t, err)
	}

	n, err := limiter.Count(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRedisRateLimiter_PerHourAppliesWhenMinuteIsOpen(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 100, PerHour: 3}

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "k", limits)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "k", limits)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 1}

	allowed, err := limiter.Allow(ctx, "a", limits)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "a", limits)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "b", limits)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	limits := Limits{PerMinute: 1}

	_, err := limiter.Allow(ctx, "k", limits)
	require.NoError(t, err)
	allowed, err := limiter.Allow(ctx, "k", limits)
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "k"))

	allowed, err = limiter.Allow(ctx, "k", limits)
	require.NoError(t, err)
	assert.True(t, allowed, "should be allowed after reset")
}

func TestRateLimiter_ZeroLimitsAllow(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))

	allowed, err := limiter.Allow(context.Background(), "k", Limits{})
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNopRateLimiter(t *testing.T) {
	var limiter RateLimiter = NopRateLimiter{}
	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), "k", Limits{PerMinute: 1})
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
