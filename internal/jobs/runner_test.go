package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/model"
)

func waitForTerminal(t *testing.T, s *Store, id string) model.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := s.Get(id); ok && job.State.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return model.Job{}
}

func TestRunnerSuccessLeavesStateToJob(t *testing.T) {
	s := newTestStore()
	r := NewRunner(s, log.New(io.Discard))

	id := r.Launch(model.JobKindSingle, func(ctx context.Context, job model.Job) error {
		job.State = model.JobStateCompleted
		job.Percent = 100
		s.Put(job)
		return nil
	})

	job := waitForTerminal(t, s, id)
	if job.State != model.JobStateCompleted {
		t.Errorf("State = %v, want completed", job.State)
	}
	if job.Kind != model.JobKindSingle {
		t.Errorf("Kind = %v, want single", job.Kind)
	}
}

func TestRunnerConvertsErrorToTerminalState(t *testing.T) {
	s := newTestStore()
	r := NewRunner(s, log.New(io.Discard))

	id := r.Launch(model.JobKindPlaylist, func(ctx context.Context, job model.Job) error {
		return errors.New("enumeration failed")
	})

	job := waitForTerminal(t, s, id)
	if job.State != model.JobStateError {
		t.Errorf("State = %v, want error", job.State)
	}
	if job.Error != "enumeration failed" {
		t.Errorf("Error = %q", job.Error)
	}
}

func TestRunnerRecoversPanic(t *testing.T) {
	s := newTestStore()
	r := NewRunner(s, log.New(io.Discard))

	id := r.Launch(model.JobKindRecognition, func(ctx context.Context, job model.Job) error {
		panic("boom")
	})

	job := waitForTerminal(t, s, id)
	if job.State != model.JobStateError {
		t.Errorf("State = %v, want error", job.State)
	}
	if job.Error == "" {
		t.Error("panic should surface as an error message")
	}
}

func TestRunnerFailureDoesNotResurrectDeletedRecord(t *testing.T) {
	s := newTestStore()
	r := NewRunner(s, log.New(io.Discard))

	deleted := make(chan struct{})
	id := r.Launch(model.JobKindSingle, func(ctx context.Context, job model.Job) error {
		<-deleted
		return errors.New("source went away")
	})

	s.Delete(id)
	close(deleted)

	// Give the goroutine time to run its failure path.
	time.Sleep(200 * time.Millisecond)
	if _, ok := s.Get(id); ok {
		t.Error("failure after deletion must not write the record back")
	}
}

func TestRemovalDelay(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  time.Duration
	}{
		{"tiny file hits the floor", 1 << 10, 60 * time.Second},
		{"small file hits the floor", 20 << 20, 60 * time.Second},
		{"large file scales with size", 100 << 20, 130 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemovalDelay(tt.bytes); got != tt.want {
				t.Errorf("RemovalDelay(%d) = %v, want %v", tt.bytes, got, tt.want)
			}
		})
	}
}
