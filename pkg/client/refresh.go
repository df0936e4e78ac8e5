package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

func refreshPath() *url.URL {
	return &url.URL{Path: "/api/auth/refresh"}
}

// refreshAccessToken renews the session through the gateway. Concurrent
// callers collapse into one flight; every waiter observes the outcome of
// that single upstream call. The result is never cached, each later 401
// starts a fresh flight.
func (c *Client) refreshAccessToken(ctx context.Context) bool {
	renewed, _, _ := c.refresh.Do("refresh", func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.ResolveReference(refreshPath()).String(), nil)
		if err != nil {
			return false, nil
		}

		res, err := c.http.Do(req)
		if err != nil {
			return false, nil
		}
		defer res.Body.Close()
		_, _ = io.Copy(io.Discard, res.Body)

		// Rotated cookies arrive via Set-Cookie and land in the jar.
		return res.StatusCode == http.StatusOK, nil
	})

	ok, _ := renewed.(bool)
	return ok
}
