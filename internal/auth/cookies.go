// Package auth owns the gateway's credential cookies. No other package may
// construct credential cookie mutations; everything goes through CookieStore.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

// Cookie names shared with the browser.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	UserInfoCookie     = "user_info"
)

// CookieStore reads and writes the credential cookies. Token cookies are
// HttpOnly so page script can never read them; the user_info snapshot is
// readable but carries no credential material.
type CookieStore struct {
	secure bool
}

// NewCookieStore creates a CookieStore. secure controls the cookie Secure
// flag and should be true in production deployments.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

// AccessToken returns the access token from the request, or "" when absent.
// Absence is an expected state, not an error.
func (s *CookieStore) AccessToken(c echo.Context) string {
	return cookieValue(c, AccessTokenCookie)
}

// RefreshToken returns the refresh token from the request, or "" when absent.
func (s *CookieStore) RefreshToken(c echo.Context) string {
	return cookieValue(c, RefreshTokenCookie)
}

// SetAll writes both token cookies and the user snapshot in a single pass so
// no reader ever observes one token updated and the other stale. Lifetimes
// come from the backend-supplied millisecond TTLs. When user is nil the
// existing snapshot is re-stamped with the new refresh lifetime.
func (s *CookieStore) SetAll(c echo.Context, pair domain.TokenPair, user *domain.UserInfo) {
	if user == nil {
		user = s.BootstrapUser(c)
	}

	c.SetCookie(s.tokenCookie(AccessTokenCookie, pair.AccessToken, pair.AccessTTL()))
	c.SetCookie(s.tokenCookie(RefreshTokenCookie, pair.RefreshToken, pair.RefreshTTL()))

	if user != nil {
		if snapshot, err := json.Marshal(user); err == nil {
			ck := s.tokenCookie(UserInfoCookie, base64.RawURLEncoding.EncodeToString(snapshot), pair.RefreshTTL())
			ck.HttpOnly = false
			c.SetCookie(ck)
		}
	}
}

// ClearAll expires all credential cookies. Idempotent; safe to call when
// nothing is present.
func (s *CookieStore) ClearAll(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie, UserInfoCookie} {
		ck := s.tokenCookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

// BootstrapUser returns the cached user snapshot from the request, or nil
// when the cookie is absent or unparseable.
func (s *CookieStore) BootstrapUser(c echo.Context) *domain.UserInfo {
	raw := cookieValue(c, UserInfoCookie)
	if raw == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var user domain.UserInfo
	if err := json.Unmarshal(decoded, &user); err != nil {
		return nil
	}
	return &user
}

func (s *CookieStore) tokenCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil || ck == nil {
		return ""
	}
	return ck.Value
}
