package jobs

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/soundgrab/soundgrab/internal/model"
)

// Runner launches one goroutine per job and guarantees the job's record ends
// in a terminal state even when the work panics. There is no cancellation of
// in-flight jobs; callers simply stop watching.
type Runner struct {
	store  *Store
	logger *log.Logger
}

// NewRunner builds a runner writing into store.
func NewRunner(store *Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{store: store, logger: logger.With("component", "runner")}
}

// NewJobID returns a fresh time-ordered job identifier.
func NewJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Launch registers a starting record for kind and runs fn in the background.
// fn drives its own intermediate state transitions through the store; Launch
// only converts a returned error or a panic into a terminal error record.
func (r *Runner) Launch(kind model.JobKind, fn func(ctx context.Context, job model.Job) error) string {
	job := model.Job{
		ID:    NewJobID(),
		Kind:  kind,
		State: model.JobStateStarting,
	}
	r.store.Put(job)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("job panicked", "id", job.ID, "panic", rec)
				r.fail(job, fmt.Sprintf("internal error: %v", rec))
			}
		}()

		if err := fn(context.Background(), job); err != nil {
			r.logger.Error("job failed", "id", job.ID, "err", err)
			r.fail(job, err.Error())
		}
	}()

	return job.ID
}

// fail writes the terminal error record. A record deleted while the job ran
// stays deleted; writing it back would resurrect a job the client discarded.
func (r *Runner) fail(job model.Job, message string) {
	current, ok := r.store.Get(job.ID)
	if !ok {
		return
	}
	current.State = model.JobStateError
	current.Error = message
	r.store.Put(current)
}
