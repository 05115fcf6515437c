package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
)

// Dispatcher writes artifact audit events off the request path. Recording is
// best effort: a full buffer drops the event and a failed insert is logged.
type Dispatcher struct {
	events chan domain.ArtifactEvent
	repo   ports.ArtifactEventRepository
	log    zerolog.Logger

	workers int
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.ArtifactEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{
		events:  make(chan domain.ArtifactEvent, channelBuffer),
		repo:    repo,
		log:     log.With().Str("component", "audit_dispatcher").Logger(),
		workers: numWorkers,
	}
}

// Start launches the workers. They exit when ctx is cancelled or after Close
// has drained the buffer.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx, i)
	}
}

// Enqueue hands an event to the workers without blocking. It reports whether
// the event was accepted.
func (d *Dispatcher) Enqueue(event domain.ArtifactEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	select {
	case d.events <- event:
		return true
	default:
		d.log.Warn().
			Str("action", string(event.Action)).
			Str("username", event.Username).
			Msg("audit buffer full, event dropped")
		return false
	}
}

// Close stops accepting events and waits for the workers to drain what is
// already buffered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.events:
			if !ok {
				return
			}
			if err := d.repo.InsertEvent(ctx, &event); err != nil {
				d.log.Error().Err(err).
					Str("action", string(event.Action)).
					Str("username", event.Username).
					Int("worker_id", id).
					Msg("audit event not recorded")
			}
		}
	}
}
