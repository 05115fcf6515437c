package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

type stubEventRepo struct {
	mu     sync.Mutex
	events []domain.ArtifactEvent
	err    error
	block  chan struct{}
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.ArtifactEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *stubEventRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDispatcher_RecordsAndDrainsOnClose(t *testing.T) {
	repo := &stubEventRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 10; i++ {
		if !d.Enqueue(domain.ArtifactEvent{Action: domain.ArtifactUploaded, Username: "admin", Timestamp: time.Now()}) {
			t.Fatalf("event %d rejected", i)
		}
	}
	d.Close()

	if got := repo.count(); got != 10 {
		t.Fatalf("expected 10 recorded events, got %d", got)
	}
	if d.Enqueue(domain.ArtifactEvent{Action: domain.ArtifactDownloaded}) {
		t.Fatalf("enqueue after close must be rejected")
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &stubEventRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	accepted := 0
	for i := 0; i < channelBuffer+10; i++ {
		if d.Enqueue(domain.ArtifactEvent{Action: domain.ArtifactUploaded}) {
			accepted++
		}
	}
	if accepted > channelBuffer+1 {
		t.Fatalf("accepted %d events, buffer holds %d plus one in flight", accepted, channelBuffer)
	}

	close(repo.block)
	d.Close()
	if got := repo.count(); got != accepted {
		t.Fatalf("expected %d recorded events, got %d", accepted, got)
	}
}

func TestDispatcher_InsertFailureIsNotFatal(t *testing.T) {
	repo := &stubEventRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	d.Enqueue(domain.ArtifactEvent{Action: domain.ArtifactUploaded})
	d.Enqueue(domain.ArtifactEvent{Action: domain.ArtifactUploaded})
	d.Close()

	if got := repo.count(); got != 0 {
		t.Fatalf("expected nothing recorded, got %d", got)
	}
}

func TestDispatcher_StopsOnContextCancel(t *testing.T) {
	repo := &stubEventRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("workers did not stop after cancel")
	}
}
