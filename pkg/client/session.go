package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

// session holds the signed-in user snapshot. Guarded by mu; the zero value
// is an anonymous session.
type session struct {
	mu   sync.RWMutex
	user *domain.UserInfo
}

func (s *session) set(user *domain.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *session) get() *domain.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	snapshot := *s.user
	return &snapshot
}

func (s *session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// Login authenticates against the gateway. A rejection is not an error:
// the envelope comes back with Success=false and the backend's own status
// message, so callers can show it to the user. Only transport and parse
// failures return errors.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.Envelope, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	target := c.base.ResolveReference(&url.URL{Path: "/api/auth/login"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer res.Body.Close()

	var env domain.Envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerResponse, err)
	}

	if env.Success {
		var data domain.LoginData
		if err := env.DecodeData(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidServerResponse, err)
		}
		c.session.set(data.UserInfo)
	}

	return &env, nil
}

// SignOut ends the session. Local credentials and the user snapshot are
// wiped even when the gateway cannot be reached; on success the gateway's
// Set-Cookie headers clear the jar for us.
func (c *Client) SignOut(ctx context.Context) error {
	target := c.base.ResolveReference(&url.URL{Path: "/api/auth/logout"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), nil)
	if err == nil {
		res, doErr := c.http.Do(req)
		if doErr == nil {
			drain(res)
		} else {
			err = doErr
		}
	}

	c.session.clear()
	if err != nil {
		c.clearCredentials()
	}
	return nil
}

// User returns a copy of the signed-in user, or nil for an anonymous
// session.
func (c *Client) User() *domain.UserInfo {
	return c.session.get()
}

func (c *Client) HasRole(role string) bool {
	user := c.session.get()
	if user == nil {
		return false
	}
	for _, r := range user.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c *Client) HasPermission(permission string) bool {
	user := c.session.get()
	if user == nil {
		return false
	}
	for _, p := range user.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Bootstrap rehydrates the session from the readable user_info cookie,
// the same snapshot the gateway stamps on login. It returns the restored
// user, or nil when no usable snapshot exists; an already populated
// session is left alone.
func (c *Client) Bootstrap() *domain.UserInfo {
	if user := c.session.get(); user != nil {
		return user
	}

	encoded := c.cookieValue(userInfoCookie)
	if encoded == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}

	var user domain.UserInfo
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil
	}

	c.session.set(&user)
	return c.session.get()
}
