package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

// LoginLimiter throttles login attempts with fixed windows per email and per
// remote IP. Key format: login:<scope>:<identifier>.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter wrapping the given Redis client.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow admits or rejects one login attempt. Over-limit attempts return
// domain.ErrTooManyAttempts; infrastructure errors are returned as-is so the
// caller can decide whether to fail open.
func (l *LoginLimiter) Allow(ctx context.Context, email, ip string) error {
	if email != "" {
		if err := l.bump(ctx, l.key("email", strings.ToLower(email))); err != nil {
			return err
		}
	}
	if ip != "" {
		if err := l.bump(ctx, l.key("ip", ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *LoginLimiter) bump(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("login limiter incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("login limiter expire: %w", err)
		}
	}
	if count > int64(l.maxAttempts) {
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (l *LoginLimiter) key(scope, identifier string) string {
	return "login:" + scope + ":" + identifier
}
