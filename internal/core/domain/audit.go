package domain

import "time"

// Auth event actions.
const (
	AuditLogin   = "login"
	AuditRefresh = "refresh"
	AuditLogout  = "logout"
)

// Auth event outcomes.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// AuthEvent records one authentication-related action for the audit trail.
type AuthEvent struct {
	Action   string    `json:"action"`
	Email    string    `json:"email,omitempty"`
	Outcome  string    `json:"outcome"`
	Reason   string    `json:"reason,omitempty"`
	RemoteIP string    `json:"remote_ip,omitempty"`
	At       time.Time `json:"at"`
}
