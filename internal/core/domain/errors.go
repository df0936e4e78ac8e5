package domain

import "errors"

var (
	// ErrNoRefreshToken is returned when a refresh is requested but no
	// refresh token is present in the request.
	ErrNoRefreshToken = errors.New("no refresh token available or expired")

	// ErrTooManyAttempts is returned when the login limiter rejects a
	// login attempt.
	ErrTooManyAttempts = errors.New("too many login attempts")

	// ErrBackendUnavailable is returned when the remote API cannot be
	// reached or returns an unreadable response.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMissingProxyPath is returned when a proxied call names no
	// backend path.
	ErrMissingProxyPath = errors.New("missing proxy path")
)
