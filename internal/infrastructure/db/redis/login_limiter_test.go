package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLoginLimiter_AllowsUnderLimit(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(context.Background(), "admin@example.com", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
	}
}

func TestLoginLimiter_RejectsOverLimit(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 2, time.Minute)

	_ = limiter.Allow(context.Background(), "admin@example.com", "")
	_ = limiter.Allow(context.Background(), "admin@example.com", "")

	err := limiter.Allow(context.Background(), "admin@example.com", "")
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	// A different identifier is unaffected.
	if err := limiter.Allow(context.Background(), "other@example.com", ""); err != nil {
		t.Fatalf("other identifier rejected: %v", err)
	}
}

func TestLoginLimiter_WindowExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 1, time.Minute)

	_ = limiter.Allow(context.Background(), "admin@example.com", "")
	if err := limiter.Allow(context.Background(), "admin@example.com", ""); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected over-limit rejection, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.Allow(context.Background(), "admin@example.com", ""); err != nil {
		t.Fatalf("attempt after window expiry rejected: %v", err)
	}
}

func TestLoginLimiter_EmailCaseInsensitive(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 1, time.Minute)

	_ = limiter.Allow(context.Background(), "Admin@Example.com", "")
	if err := limiter.Allow(context.Background(), "admin@example.com", ""); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("case variants must share a window, got %v", err)
	}
}

func TestLoginLimiter_InfrastructureErrorIsNotARejection(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewLoginLimiter(client, 5, time.Minute)
	mr.Close()

	err := limiter.Allow(context.Background(), "admin@example.com", "")
	if err == nil {
		t.Fatalf("expected infrastructure error")
	}
	if errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("infrastructure error must be distinguishable from rejection")
	}
}
