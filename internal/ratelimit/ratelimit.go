// Package ratelimit tracks failed OTP verification attempts per flow
// token. The limiter is best-effort: when Redis is not configured (or a
// command fails) verification proceeds unthrottled rather than locking
// users out because a cache is down.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/sitwell/internal/utils"
)

const (
	maxAttempts   = 5
	attemptWindow = 10 * time.Minute
)

// Limiter counts failed OTP attempts in Redis. A nil *Limiter is valid
// and disables limiting.
type Limiter struct {
	rdb *redis.Client
}

// New connects to Redis and returns a Limiter. An empty addr returns a
// nil limiter, which allows everything.
func New(addr, password string) (*Limiter, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Limiter{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.rdb.Close()
}

// Blocked reports whether the flow token has exhausted its attempts.
func (l *Limiter) Blocked(ctx context.Context, token string) bool {
	if l == nil {
		return false
	}

	count, err := l.rdb.Get(ctx, attemptKey(token)).Int()
	if err != nil && err != redis.Nil {
		utils.GetLogger().Warn("rate limiter read failed", zap.Error(err))
		return false
	}

	return count >= maxAttempts
}

// RecordFailure bumps the failed-attempt counter for the flow token.
func (l *Limiter) RecordFailure(ctx context.Context, token string) {
	if l == nil {
		return
	}

	key := attemptKey(token)
	pipe := l.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, attemptWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		utils.GetLogger().Warn("rate limiter write failed", zap.Error(err))
	}
}

// Reset clears the counter, used after a successful verification.
func (l *Limiter) Reset(ctx context.Context, token string) {
	if l == nil {
		return
	}
	if err := l.rdb.Del(ctx, attemptKey(token)).Err(); err != nil {
		utils.GetLogger().Warn("rate limiter reset failed", zap.Error(err))
	}
}

func attemptKey(token string) string {
	return "otp_attempts:" + token
}
