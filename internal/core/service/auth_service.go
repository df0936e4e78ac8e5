package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/channy-sao/admin-gateway/internal/api/metrics"
	"github.com/channy-sao/admin-gateway/internal/core/domain"
	"github.com/channy-sao/admin-gateway/internal/core/ports"
)

// AuthService implements the gateway's session lifecycle against the remote
// API: rate-limited login, token renewal, and best-effort logout. Every
// outcome is recorded on the audit trail.
type AuthService struct {
	backend ports.BackendAuth
	limiter ports.LoginLimiter
	audit   ports.AuditRecorder
	log     zerolog.Logger
}

func NewAuthService(backend ports.BackendAuth, limiter ports.LoginLimiter, audit ports.AuditRecorder, log zerolog.Logger) *AuthService {
	return &AuthService{backend: backend, limiter: limiter, audit: audit, log: log}
}

// Login forwards credentials to the backend after the limiter admits the
// attempt. A backend rejection (wrong password) is a normal reply, not an
// error: the caller receives the envelope and relays it to the user.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials, remoteIP string) (*ports.AuthReply, error) {
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, creds.Email, remoteIP); err != nil {
			if errors.Is(err, domain.ErrTooManyAttempts) {
				metrics.LoginAttemptsTotal.WithLabelValues("limited").Inc()
				s.record(domain.AuditLogin, creds.Email, remoteIP, domain.AuditFailure, "rate limited")
				return nil, err
			}
			// Limiter infrastructure trouble must not lock users out.
			s.log.Warn().Err(err).Msg("login limiter unavailable, admitting attempt")
		}
	}

	reply, err := s.backend.Login(ctx, creds)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		s.record(domain.AuditLogin, creds.Email, remoteIP, domain.AuditFailure, "backend unreachable")
		return nil, err
	}

	if reply.Granted() {
		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		s.record(domain.AuditLogin, creds.Email, remoteIP, domain.AuditSuccess, "")
	} else {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		s.record(domain.AuditLogin, creds.Email, remoteIP, domain.AuditFailure, reply.Envelope.Status.Message)
	}
	return reply, nil
}

// Refresh exchanges the refresh token for a new pair. A nil error with an
// ungranted reply means the backend refused the token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthReply, error) {
	if refreshToken == "" {
		return nil, domain.ErrNoRefreshToken
	}

	reply, err := s.backend.RefreshToken(ctx, refreshToken)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("failure").Inc()
		s.record(domain.AuditRefresh, "", "", domain.AuditFailure, "backend unreachable")
		return nil, err
	}

	if reply.Granted() {
		metrics.RefreshTotal.WithLabelValues("success").Inc()
		s.record(domain.AuditRefresh, "", "", domain.AuditSuccess, "")
	} else {
		metrics.RefreshTotal.WithLabelValues("failure").Inc()
		s.record(domain.AuditRefresh, "", "", domain.AuditFailure, reply.Envelope.Status.Message)
	}
	return reply, nil
}

// Logout revokes the refresh token at the backend. Failures are logged and
// swallowed; local sign-out must never block on the network.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.backend.Logout(ctx, refreshToken); err != nil {
		s.log.Warn().Err(err).Msg("backend logout failed, clearing session anyway")
		s.record(domain.AuditLogout, "", "", domain.AuditFailure, "backend unreachable")
		return nil
	}
	s.record(domain.AuditLogout, "", "", domain.AuditSuccess, "")
	return nil
}

func (s *AuthService) record(action, email, ip, outcome, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		Action:   action,
		Email:    email,
		Outcome:  outcome,
		Reason:   reason,
		RemoteIP: ip,
		At:       time.Now().UTC(),
	})
}
