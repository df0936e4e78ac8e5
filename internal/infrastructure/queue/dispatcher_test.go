package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

type captureRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	block  chan struct{}
}

func (r *captureRepo) Insert(_ context.Context, event *domain.AuthEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *captureRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestAuditDispatcher_PersistsEvents(t *testing.T) {
	repo := &captureRepo{}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 5; i++ {
		d.Record(domain.AuthEvent{Action: domain.AuditLogin, Outcome: domain.AuditSuccess, At: time.Now()})
	}

	deadline := time.After(2 * time.Second)
	for repo.count() < 5 {
		select {
		case <-deadline:
			t.Fatalf("persisted %d of 5 events before timeout", repo.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestAuditDispatcher_RecordNeverBlocks(t *testing.T) {
	repo := &captureRepo{block: make(chan struct{})}
	d := NewAuditDispatcher(1, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Overfill the buffer while the worker is stuck.
		for i := 0; i < channelBuffer*2; i++ {
			d.Record(domain.AuthEvent{Action: domain.AuditRefresh})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Record blocked on a full buffer")
	}
	close(repo.block)
}
