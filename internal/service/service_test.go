package service

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/config"
	"github.com/soundgrab/soundgrab/internal/errs"
	"github.com/soundgrab/soundgrab/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.Download.Dir = t.TempDir()
	return New(cfg, log.New(io.Discard))
}

func TestSubmitRejectsUnknownSource(t *testing.T) {
	s := newTestService(t)

	_, err := s.Submit(SubmitRequest{URL: "https://example.com/watch?v=abc"})
	if err == nil {
		t.Fatal("expected an error for an unrecognized source")
	}
	var unrecognized *errs.UnrecognizedSourceError
	if !errs.As(err, &unrecognized) {
		t.Errorf("error = %v, want UnrecognizedSourceError", err)
	}
}

func TestSubmitRejectsInvalidTrimRange(t *testing.T) {
	s := newTestService(t)

	start, end := 50.0, 10.0
	_, err := s.Submit(SubmitRequest{
		URL:       "https://www.youtube.com/watch?v=abc",
		TrimStart: &start,
		TrimEnd:   &end,
	})
	var invalid *errs.InvalidRangeError
	if !errs.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidRangeError", err)
	}
	if invalid.Start != 50 || invalid.End != 10 {
		t.Errorf("range = (%v, %v), want (50, 10)", invalid.Start, invalid.End)
	}
}

func TestSubmitRecognitionRejectsUnknownSource(t *testing.T) {
	s := newTestService(t)

	_, err := s.SubmitRecognition("ftp://nowhere", nil, false)
	var unsupported *errs.UnsupportedSourceError
	if !errs.As(err, &unsupported) {
		t.Errorf("error = %v, want UnsupportedSourceError", err)
	}
}

func TestArtifactLifecycle(t *testing.T) {
	s := newTestService(t)

	path := filepath.Join(s.cfg.Download.Dir, "done.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	s.store.Put(model.Job{
		ID:    "done",
		Kind:  model.JobKindSingle,
		State: model.JobStateCompleted,
		Result: &model.JobResult{
			ArtifactPath: path,
			DisplayName:  "My Track",
		},
	})

	got, err := s.Artifact("done")
	if err != nil {
		t.Fatalf("Artifact() error = %v", err)
	}
	if got.DisplayName != "My Track" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}

	if err := s.DeleteJob("done"); err != nil {
		t.Fatalf("DeleteJob() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("artifact file should be removed")
	}
	if _, err := s.Artifact("done"); err == nil {
		t.Error("expected not-found after delete")
	}
}

func TestArtifactRequiresCompletedJob(t *testing.T) {
	s := newTestService(t)

	s.store.Put(model.Job{ID: "running", State: model.JobStateDownloading})
	if _, err := s.Artifact("running"); err == nil {
		t.Error("expected an error for a non-terminal job")
	}

	if _, err := s.Artifact("nope"); err == nil {
		t.Error("expected an error for an unknown job")
	}
}
