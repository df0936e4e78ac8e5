package ports

import "context"

// LoginLimiter throttles login attempts per identifier. Allow returns
// domain.ErrTooManyAttempts when the caller is over the limit.
type LoginLimiter interface {
	Allow(ctx context.Context, email, ip string) error
}
