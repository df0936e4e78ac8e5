// Package queue decouples audit persistence from request handling: events
// are buffered in memory and written by background workers so an audit sink
// outage never slows a login.
package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/channy-sao/admin-gateway/internal/api/metrics"
	"github.com/channy-sao/admin-gateway/internal/core/domain"
	"github.com/channy-sao/admin-gateway/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
)

// AuditDispatcher implements ports.AuditRecorder with a buffered channel and
// a fixed worker pool. Record never blocks; when the buffer is full the
// event is dropped and counted.
type AuditDispatcher struct {
	ch      chan domain.AuthEvent
	repo    ports.AuditRepository
	workers int
	log     zerolog.Logger
}

// NewAuditDispatcher creates an AuditDispatcher writing to repo.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &AuditDispatcher{
		ch:      make(chan domain.AuthEvent, channelBuffer),
		repo:    repo,
		workers: numWorkers,
		log:     log,
	}
}

// Start launches the worker goroutines. Workers stop when ctx is cancelled.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		go d.runWorker(ctx, i)
	}
}

// Record enqueues an event for persistence. Non-blocking: a full buffer
// drops the event rather than stalling the auth path.
func (d *AuditDispatcher) Record(event domain.AuthEvent) {
	select {
	case d.ch <- event:
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().Str("action", event.Action).Msg("audit buffer full, event dropped")
	}
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.ch:
			if !ok {
				return
			}
			if err := d.repo.Insert(ctx, &event); err != nil {
				d.log.Error().Err(err).
					Str("action", event.Action).
					Int("worker_id", id).
					Msg("audit event persistence failed")
			}
		}
	}
}
