package ports

import (
	"context"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

// AuditRepository persists authentication events for the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditRecorder accepts events for asynchronous persistence. Implementations
// must never block the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}
