package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures = 5
	defaultCooldown    = 15 * time.Minute
)

// AttemptLimiter throttles signin attempts per username, backed by Redis.
// Key format: signin_attempts:<username>, a counter expiring after the cooldown.
type AttemptLimiter struct {
	client      *redis.Client
	maxFailures int64
	cooldown    time.Duration
}

// NewAttemptLimiter creates an AttemptLimiter wrapping the given Redis client.
// Non-positive knobs fall back to the defaults.
func NewAttemptLimiter(client *redis.Client, maxFailures int, cooldown time.Duration) *AttemptLimiter {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &AttemptLimiter{client: client, maxFailures: int64(maxFailures), cooldown: cooldown}
}

// Allow reports whether the username is still under the failure threshold.
func (l *AttemptLimiter) Allow(ctx context.Context, username string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(username)).Int64()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return false, fmt.Errorf("limiter check: %w", err)
	}
	return n < l.maxFailures, nil
}

// RecordFailure counts a failed attempt. The counter expires after the
// cooldown so a locked username frees itself without intervention.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, username string) error {
	key := l.key(username)
	if err := l.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("limiter incr: %w", err)
	}
	return l.client.Expire(ctx, key, l.cooldown).Err()
}

// Reset clears the failure counter after a successful signin.
func (l *AttemptLimiter) Reset(ctx context.Context, username string) error {
	return l.client.Del(ctx, l.key(username)).Err()
}

func (l *AttemptLimiter) key(username string) string {
	return fmt.Sprintf("signin_attempts:%s", username)
}
