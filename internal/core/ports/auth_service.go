package ports

import (
	"context"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

// AuthReply carries the backend's verdict on an auth operation. Envelope is
// always set when the backend answered at all; Tokens is non-nil only when
// the backend confirmed the operation and issued credentials.
type AuthReply struct {
	StatusCode int
	Envelope   *domain.Envelope
	Tokens     *domain.LoginData
}

// Granted reports whether the backend confirmed the operation and issued a
// usable token pair.
func (r *AuthReply) Granted() bool {
	return r != nil && r.Envelope != nil && r.Envelope.Success && r.Tokens != nil
}

// AuthService is the gateway-side session lifecycle: rate-limited login,
// token renewal, and best-effort logout, all delegated to the remote API.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials, remoteIP string) (*AuthReply, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthReply, error)
	Logout(ctx context.Context, refreshToken string) error
}

// BackendAuth is the raw transport to the remote API's auth endpoints.
type BackendAuth interface {
	Login(ctx context.Context, creds domain.Credentials) (*AuthReply, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthReply, error)
	Logout(ctx context.Context, refreshToken string) error
}
