package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter caps generations per user within a rolling window.
type RedisLimiter struct {
	client *redis.Client
	limit  int // max generations per window
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func usageKey(userID string) string {
	return "usage:" + userID
}

// Reserve counts the generation before it runs, so concurrent requests
// cannot overshoot the limit. The window starts with the first use.
func (r *RedisLimiter) Reserve(ctx context.Context, userID string) (bool, error) {
	key := usageKey(userID)
	total, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("reserve usage: %w", err)
	}
	if total == 1 && r.window > 0 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("reserve usage: %w", err)
		}
	}
	if total > int64(r.limit) {
		if err := r.client.Decr(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("reserve usage: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// Release returns a reserved unit.
func (r *RedisLimiter) Release(ctx context.Context, userID string) error {
	key := usageKey(userID)
	n, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("release usage: %w", err)
	}
	if n < 0 {
		// the window expired between reserve and release
		return r.client.Del(ctx, key).Err()
	}
	return nil
}

// Usage returns the current count for a user.
func (r *RedisLimiter) Usage(ctx context.Context, userID string) (int, error) {
	n, err := r.client.Get(ctx, usageKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// NoopLimiter never refuses and records nothing.
type NoopLimiter struct{}

func (NoopLimiter) Reserve(context.Context, string) (bool, error) { return true, nil }

func (NoopLimiter) Release(context.Context, string) error { return nil }
