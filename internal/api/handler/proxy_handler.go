package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/channy-sao/admin-gateway/internal/api/metrics"
	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

// hopHeaders are stripped in both directions; they describe the connection,
// not the message. Host and Content-Length framing is recomputed by the
// transport.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Proxy-Connection":    {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Content-Length":      {},
	"Host":                {},
}

// ProxyHandler relays business API calls to the backend verbatim. Per-call
// authentication is the backend's job; the gateway only forwards.
type ProxyHandler struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewProxyHandler creates a ProxyHandler targeting the given backend base URL.
func NewProxyHandler(baseURL string, log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Relay forwards method, query, headers, and body to the backend and streams
// the backend's status and body back unchanged.
//
// @Summary      Proxy a backend API call
// @Tags         proxy
// @Param        path  path  string  true  "Backend path"
// @Success      200
// @Failure      400  {object}  domain.Envelope
// @Failure      502  {object}  domain.Envelope
// @Router       /api/proxy/{path} [get]
func (h *ProxyHandler) Relay(c echo.Context) error {
	path := c.Param("*")
	if path == "" {
		return domain.ErrMissingProxyPath
	}

	req := c.Request()
	target := h.baseURL + "/" + path
	if rawQuery := req.URL.RawQuery; rawQuery != "" {
		target += "?" + rawQuery
	}

	out, err := http.NewRequestWithContext(req.Context(), req.Method, target, req.Body)
	if err != nil {
		return fmt.Errorf("build proxy request: %w", err)
	}
	copyHeaders(out.Header, req.Header)

	start := time.Now()
	res, err := h.http.Do(out)
	if err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues(req.Method, "502").Inc()
		h.log.Warn().Err(err).Str("target", target).Msg("proxy request failed")
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer res.Body.Close()

	metrics.ProxyRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(res.StatusCode)).Inc()
	metrics.ProxyDuration.Observe(time.Since(start).Seconds())

	header := c.Response().Header()
	copyHeaders(header, res.Header)
	header.Del(echo.HeaderContentType) // c.Stream sets it

	contentType := res.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(res.StatusCode, contentType, res.Body)
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if _, skip := hopHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
