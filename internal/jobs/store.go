// Package jobs tracks long-running background operations. Each job writes its
// own record; readers poll or stream snapshots. Records are replaced whole on
// every write so readers never observe a partially updated job.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/model"
)

const (
	// watchInterval is the poll period for streaming subscriptions.
	watchInterval = 250 * time.Millisecond

	// watchMaxWait bounds how long a subscription can stay open.
	watchMaxWait = 5 * time.Minute

	// terminalTTL is how long finished records stay readable before the
	// eviction sweep drops them.
	terminalTTL = time.Hour

	evictionInterval = time.Minute
)

// Store is the shared job-progress map. Exactly one goroutine writes a given
// key; readers are unbounded.
type Store struct {
	mu     sync.RWMutex
	jobs   map[string]model.Job
	logger *log.Logger
}

// NewStore creates an empty store.
func NewStore(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		jobs:   make(map[string]model.Job),
		logger: logger.With("component", "jobs"),
	}
}

// Put replaces the record for job.ID and stamps it.
func (s *Store) Put(job model.Job) {
	job.UpdatedAt = time.Now()
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

// Get returns the current record for id.
func (s *Store) Get(id string) (model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Delete removes the record for id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

// Watch streams snapshots of the job with the given id. The current record is
// emitted immediately, then again whenever its content changes. The channel
// closes once a terminal state has been emitted, the job disappears, the
// context is done, or the maximum wait elapses.
func (s *Store) Watch(ctx context.Context, id string) <-chan model.Job {
	out := make(chan model.Job, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		deadline := time.NewTimer(watchMaxWait)
		defer deadline.Stop()

		var last model.Job
		var seen bool

		for {
			job, ok := s.Get(id)
			if !ok {
				return
			}
			if !seen || !job.Equal(last) {
				select {
				case out <- job:
				case <-ctx.Done():
					return
				}
				last = job
				seen = true
				if job.State.IsTerminal() {
					return
				}
			}

			select {
			case <-ticker.C:
			case <-deadline.C:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// StartEviction launches the periodic sweep removing terminal records older
// than the TTL. It stops when ctx is done.
func (s *Store) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(evictionInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.evictStale(time.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Store) evictStale(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, job := range s.jobs {
		if job.State.IsTerminal() && now.Sub(job.UpdatedAt) > terminalTTL {
			delete(s.jobs, id)
			s.logger.Debug("evicted finished job", "id", id, "state", job.State)
		}
	}
}
