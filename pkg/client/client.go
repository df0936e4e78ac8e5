// Package client is the Go consumer of the admin gateway. It wraps every
// call in an authenticated pipeline: bearer attach, a single transparent
// refresh-and-retry on 401, and classification of the response envelope
// into typed errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

// Cookie names are part of the gateway wire contract.
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	userInfoCookie     = "user_info"
)

const defaultTimeout = 30 * time.Second

// Client issues authenticated requests through the gateway proxy. All
// methods are safe for concurrent use; overlapping 401s share a single
// refresh flight.
type Client struct {
	base    *url.URL
	http    *http.Client
	refresh singleflight.Group
	session session
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport. A cookie jar is
// installed if the given client has none.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func New(gatewayURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}

	return c, nil
}

// RequestOptions describes one proxied call. JSON takes precedence over
// Body; Body carries pre-encoded payloads (multipart uploads) together
// with their ContentType, which is forwarded untouched.
type RequestOptions struct {
	Method      string
	Header      http.Header
	JSON        any
	Body        []byte
	ContentType string
}

// Call sends an authenticated request to the given backend endpoint, e.g.
// "api/v1/users?page=2". On a 401 it refreshes the session once and
// retries; a second 401 resolves to ErrSessionExpired. Rejections flagged
// in the envelope come back as *BusinessError.
func (c *Client) Call(ctx context.Context, endpoint string, opts RequestOptions) (*domain.Envelope, error) {
	res, err := c.attempt(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}

	if res.StatusCode == http.StatusUnauthorized {
		drain(res)
		if !c.refreshAccessToken(ctx) {
			return nil, ErrSessionExpired
		}

		res, err = c.attempt(ctx, endpoint, opts)
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusUnauthorized {
			drain(res)
			return nil, ErrSessionExpired
		}
	}

	return classify(res)
}

func (c *Client) attempt(ctx context.Context, endpoint string, opts RequestOptions) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse("/api/proxy/" + strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	var body io.Reader
	contentType := ""
	switch {
	case opts.JSON != nil:
		payload, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	case len(opts.Body) > 0:
		body = bytes.NewReader(opts.Body)
		contentType = opts.ContentType
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(target).String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for name, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	return res, nil
}

// classify turns the raw response into an envelope or a typed error. An
// explicit success=false flag wins over the HTTP status; without the flag
// a 5xx means the backend never produced a verdict.
func classify(res *http.Response) (*domain.Envelope, error) {
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerResponse, err)
	}

	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerResponse, err)
	}

	var probe struct {
		Success *bool `json:"success"`
	}
	_ = json.Unmarshal(raw, &probe)
	if probe.Success != nil && !*probe.Success {
		return nil, &BusinessError{Code: env.Status.Code, Message: env.Status.Message}
	}

	if res.StatusCode >= http.StatusInternalServerError {
		return nil, ErrServerUnavailable
	}

	return &env, nil
}

// accessToken reads the current access token from the cookie jar. The jar
// is the only credential store on this side of the wire.
func (c *Client) accessToken() string {
	return c.cookieValue(accessTokenCookie)
}

func (c *Client) cookieValue(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) clearCredentials() {
	expired := make([]*http.Cookie, 0, 3)
	for _, name := range []string{accessTokenCookie, refreshTokenCookie, userInfoCookie} {
		expired = append(expired, &http.Cookie{Name: name, Value: "", MaxAge: -1})
	}
	c.http.Jar.SetCookies(c.base, expired)
}

func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}
