// Package backend implements the HTTP transport to the remote API's auth
// endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
	"github.com/channy-sao/admin-gateway/internal/core/ports"
)

const (
	loginPath   = "/api/v1/auth/login/local"
	refreshPath = "/api/v1/auth/refresh-token"
	logoutPath  = "/api/v1/auth/logout"

	defaultTimeout = 10 * time.Second
)

// Client talks to the remote API's auth endpoints. It implements
// ports.BackendAuth.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client for the given backend base URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

// Login forwards credentials to the backend's local login endpoint.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*ports.AuthReply, error) {
	return c.post(ctx, loginPath, creds, "")
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*ports.AuthReply, error) {
	body := map[string]string{"refreshToken": refreshToken}
	return c.post(ctx, refreshPath, body, "")
}

// Logout notifies the backend that the refresh token should be revoked.
// The caller treats this as best-effort; only transport failures surface.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.post(ctx, logoutPath, nil, refreshToken)
	return err
}

func (c *Client) post(ctx context.Context, path string, body any, bearer string) (*ports.AuthReply, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer res.Body.Close()

	var env domain.Envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		c.log.Warn().Err(err).Str("path", path).Int("status", res.StatusCode).
			Msg("backend returned unreadable body")
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrBackendUnavailable, err)
	}

	reply := &ports.AuthReply{StatusCode: res.StatusCode, Envelope: &env}
	if env.Success {
		var data domain.LoginData
		if err := env.DecodeData(&data); err != nil {
			return nil, fmt.Errorf("%w: decode token payload: %v", domain.ErrBackendUnavailable, err)
		}
		if data.AccessToken != "" {
			reply.Tokens = &data
		}
	}
	return reply, nil
}
