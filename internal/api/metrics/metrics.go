// Package metrics defines all custom Prometheus metrics for the admin
// gateway. It is the single source of truth for metric names, labels, and
// help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts forwarded to the backend.
// Labels:
//   - result: "success", "rejected" (backend said no), "limited" (rate limiter), "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// RefreshTotal counts token renewal calls to the backend.
// Labels:
//   - result: "success" or "failure"
var RefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_total",
		Help:      "Total number of token refresh calls, labelled by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts route guard navigation decisions.
// Label:
//   - decision: "proceed", "redirect_login", "redirect_home", "refresh_proceed"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, labelled by outcome.",
	},
	[]string{"decision"},
)

// ── Proxy metrics ─────────────────────────────────────────────────────────────

// ProxyRequestsTotal counts requests relayed to the backend.
// Labels:
//   - method: HTTP method
//   - status: backend status code (e.g. "200", "401", "502")
var ProxyRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_requests_total",
		Help:      "Total number of proxied API calls, labelled by method and backend status.",
	},
	[]string{"method", "status"},
)

// ProxyDuration measures end-to-end latency of proxied calls.
var ProxyDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "proxy_duration_seconds",
		Help:      "Duration of proxied API calls from receipt to backend response.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditDroppedTotal counts audit events dropped because the dispatcher
// buffer was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit events dropped due to a full buffer.",
	},
)
