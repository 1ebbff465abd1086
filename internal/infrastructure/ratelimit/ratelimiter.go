package ratelimit

import (
	"context"
	"time"
)

// Limits caps requests per sliding window. A zero field disables that window.
type Limits struct {
	PerMinute int
	PerHour   int
}

// RateLimiter decides whether one more request for key fits within limits.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limits Limits) (bool, error)
	Count(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// NopRateLimiter allows everything. Used when redis is not configured.
type NopRateLimiter struct{}

func (NopRateLimiter) Allow(ctx context.Context, key string, limits Limits) (bool, error) {
	return true, nil
}

func (NopRateLimiter) Count(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, nil
}

func (NopRateLimiter) Reset(ctx context.Context, key string) error {
	return nil
}
