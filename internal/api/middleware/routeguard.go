package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/channy-sao/admin-gateway/internal/api/metrics"
	"github.com/channy-sao/admin-gateway/internal/auth"
	"github.com/channy-sao/admin-gateway/internal/core/ports"
)

const defaultRefreshTimeout = 3 * time.Second

// Refresher renews a token pair. Satisfied by the auth service.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*ports.AuthReply, error)
}

// GuardConfig tunes the route guard.
type GuardConfig struct {
	// PublicRoutes are pages an unauthenticated visitor may see. A visitor
	// who already holds tokens is sent home instead.
	PublicRoutes []string
	// SkipPrefixes bypass the guard entirely; API calls authenticate
	// per-request, not per-navigation.
	SkipPrefixes []string
	LoginPath    string
	HomePath     string
	// RefreshTimeout bounds the proactive renewal so a slow backend cannot
	// hang a navigation. Timeout counts as failure.
	RefreshTimeout time.Duration
}

func (cfg *GuardConfig) applyDefaults() {
	if len(cfg.PublicRoutes) == 0 {
		cfg.PublicRoutes = []string{"/login"}
	}
	if len(cfg.SkipPrefixes) == 0 {
		cfg.SkipPrefixes = []string{"/api/", "/health", "/metrics", "/swagger", "/assets"}
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
}

// RouteGuard gates page navigations before they render:
//
//   - public route, no tokens        → proceed
//   - public route, any token        → redirect home
//   - API/skip prefix                → proceed
//   - protected, access token        → proceed
//   - protected, refresh token only  → bounded proactive renewal;
//     success proceeds with fresh cookies, anything else redirects to login
//   - protected, no tokens           → redirect to login
func RouteGuard(cfg GuardConfig, cookies *auth.CookieStore, refresher Refresher, log zerolog.Logger) echo.MiddlewareFunc {
	cfg.applyDefaults()

	public := make(map[string]struct{}, len(cfg.PublicRoutes))
	for _, route := range cfg.PublicRoutes {
		public[route] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			for _, prefix := range cfg.SkipPrefixes {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			accessToken := cookies.AccessToken(c)
			refreshToken := cookies.RefreshToken(c)

			if _, isPublic := public[path]; isPublic {
				if accessToken != "" || refreshToken != "" {
					metrics.GuardDecisionsTotal.WithLabelValues("redirect_home").Inc()
					return c.Redirect(http.StatusFound, cfg.HomePath)
				}
				metrics.GuardDecisionsTotal.WithLabelValues("proceed").Inc()
				return next(c)
			}

			if accessToken != "" {
				metrics.GuardDecisionsTotal.WithLabelValues("proceed").Inc()
				return next(c)
			}

			if refreshToken != "" {
				ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.RefreshTimeout)
				defer cancel()

				reply, err := refresher.Refresh(ctx, refreshToken)
				if err == nil && reply.Granted() {
					// Forward the renewed credentials on this response so the
					// page loads already re-authenticated.
					cookies.SetAll(c, reply.Tokens.TokenPair, reply.Tokens.UserInfo)
					metrics.GuardDecisionsTotal.WithLabelValues("refresh_proceed").Inc()
					return next(c)
				}

				// A renewal that errors, times out, or is refused all land
				// here: never leave a half-authenticated page rendering.
				if err != nil {
					log.Warn().Err(err).Str("path", path).Msg("proactive refresh failed")
				} else {
					log.Debug().Str("path", path).Msg("refresh token refused")
				}
			}

			metrics.GuardDecisionsTotal.WithLabelValues("redirect_login").Inc()
			return c.Redirect(http.StatusFound, cfg.LoginPath)
		}
	}
}
