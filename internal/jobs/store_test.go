package jobs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/model"
)

func newTestStore() *Store {
	return NewStore(log.New(io.Discard))
}

func TestStoreReplacesWholeRecord(t *testing.T) {
	s := newTestStore()

	s.Put(model.Job{ID: "a", State: model.JobStateDownloading, Percent: 40, Message: "downloading"})
	s.Put(model.Job{ID: "a", State: model.JobStateConverting})

	got, ok := s.Get("a")
	if !ok {
		t.Fatal("job not found")
	}
	if got.State != model.JobStateConverting {
		t.Errorf("State = %v, want converting", got.State)
	}
	if got.Percent != 0 || got.Message != "" {
		t.Errorf("old fields leaked into replaced record: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt was not stamped")
	}
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore()
	s.Put(model.Job{ID: "a", State: model.JobStateStarting})
	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Error("job still present after Delete")
	}
}

func TestWatchEmitsChangesAndStopsOnTerminal(t *testing.T) {
	s := newTestStore()
	s.Put(model.Job{ID: "a", State: model.JobStateStarting})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch := s.Watch(ctx, "a")

	first := <-ch
	if first.State != model.JobStateStarting {
		t.Errorf("first snapshot State = %v, want starting", first.State)
	}

	s.Put(model.Job{ID: "a", State: model.JobStateCompleted, Percent: 100})

	var last model.Job
	for job := range ch {
		last = job
	}
	if last.State != model.JobStateCompleted {
		t.Errorf("last snapshot State = %v, want completed", last.State)
	}
}

func TestWatchClosesWhenJobMissing(t *testing.T) {
	s := newTestStore()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := s.Watch(ctx, "missing")
	if _, ok := <-ch; ok {
		t.Error("expected channel to close without emitting")
	}
}

func TestWatchDoesNotReemitIdenticalRecord(t *testing.T) {
	s := newTestStore()
	s.Put(model.Job{ID: "a", State: model.JobStateDownloading, Percent: 10})

	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Watch(ctx, "a")

	<-ch

	// Rewrite with identical content; only UpdatedAt changes.
	s.Put(model.Job{ID: "a", State: model.JobStateDownloading, Percent: 10})

	select {
	case job, ok := <-ch:
		if ok {
			t.Errorf("unexpected re-emit of identical record: %+v", job)
		}
	case <-time.After(600 * time.Millisecond):
	}
	cancel()
}

func TestEvictStale(t *testing.T) {
	s := newTestStore()

	s.Put(model.Job{ID: "old-done", State: model.JobStateCompleted})
	s.Put(model.Job{ID: "fresh-done", State: model.JobStateCompleted})
	s.Put(model.Job{ID: "old-active", State: model.JobStateDownloading})

	// Backdate two records past the TTL.
	s.mu.Lock()
	for _, id := range []string{"old-done", "old-active"} {
		job := s.jobs[id]
		job.UpdatedAt = time.Now().Add(-2 * terminalTTL)
		s.jobs[id] = job
	}
	s.mu.Unlock()

	s.evictStale(time.Now())

	if _, ok := s.Get("old-done"); ok {
		t.Error("stale terminal job should have been evicted")
	}
	if _, ok := s.Get("fresh-done"); !ok {
		t.Error("fresh terminal job should have been kept")
	}
	if _, ok := s.Get("old-active"); !ok {
		t.Error("active job must never be evicted")
	}
}
