package acquire

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/errs"
	"github.com/soundgrab/soundgrab/internal/ffmpeg"
	"github.com/soundgrab/soundgrab/internal/model"
)

// fakeEngineDir lays out stand-in engine binaries so Resolve succeeds
// without a real installation.
func fakeEngineDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{ffmpeg.FFmpegCommand, ffmpeg.FFprobeCommand} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestMediaStrategy(t *testing.T, engineDir string) *mediaStrategy {
	t.Helper()
	return newMediaStrategy(model.PlatformYouTube, "video", Options{
		EngineDir: engineDir,
		Bitrate:   "320k",
		Logger:    log.New(io.Discard),
	})
}

func TestAcquireMetadataFailureIsFatal(t *testing.T) {
	m := newTestMediaStrategy(t, fakeEngineDir(t))
	m.probe = func(ctx context.Context, url string) (*probeInfo, error) {
		return nil, errors.New("extraction failed")
	}
	downloaded := false
	m.run = func(ctx context.Context, engine *ffmpeg.Engine, url, destPath string, onProgress model.ProgressFunc) error {
		downloaded = true
		return nil
	}

	dest := filepath.Join(t.TempDir(), "track.mp3")
	_, err := m.Acquire(context.Background(), "https://youtube.com/watch?v=x", dest, "", nil)
	if err == nil {
		t.Fatal("expected an error when the metadata probe fails")
	}
	var acq *errs.AcquisitionError
	if !errs.As(err, &acq) {
		t.Errorf("expected AcquisitionError, got %T: %v", err, err)
	}
	if downloaded {
		t.Error("download must not start after a failed probe")
	}
}

func TestAcquireFallbackTitleForEmptyMetadata(t *testing.T) {
	tests := []struct {
		name        string
		probedTitle string
		want        string
	}{
		{"probed title wins", "Probed Title", "Probed Title"},
		{"empty title falls back", "", "video"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := newTestMediaStrategy(t, fakeEngineDir(t))
			m.probe = func(ctx context.Context, url string) (*probeInfo, error) {
				return &probeInfo{Title: test.probedTitle}, nil
			}
			m.run = func(ctx context.Context, engine *ffmpeg.Engine, url, destPath string, onProgress model.ProgressFunc) error {
				return os.WriteFile(destPath, []byte("x"), 0o644)
			}

			dest := filepath.Join(t.TempDir(), "track.mp3")
			result, err := m.Acquire(context.Background(), "https://youtube.com/watch?v=x", dest, "", nil)
			if err != nil {
				t.Fatalf("Acquire() error = %v", err)
			}
			if result.DisplayName != test.want {
				t.Errorf("DisplayName = %q, want %q", result.DisplayName, test.want)
			}
		})
	}
}

func TestLocateOutputExactPath(t *testing.T) {
	dir := t.TempDir()
	expected := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(expected, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := locateOutput(dir, expected, "track")
	if err != nil {
		t.Fatalf("locateOutput() error = %v", err)
	}
	if got != expected {
		t.Errorf("locateOutput() = %q, want %q", got, expected)
	}
}

func TestLocateOutputFallsBackToNewestStem(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "track_old.mp3")
	newer := filepath.Join(dir, "track_new.mp3")
	for _, p := range []string{older, newer} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := locateOutput(dir, filepath.Join(dir, "track.mp3"), "track")
	if err != nil {
		t.Fatalf("locateOutput() error = %v", err)
	}
	if got != newer {
		t.Errorf("locateOutput() = %q, want %q", got, newer)
	}
}

func TestLocateOutputNothingProduced(t *testing.T) {
	dir := t.TempDir()
	if _, err := locateOutput(dir, filepath.Join(dir, "track.mp3"), "track"); err == nil {
		t.Error("expected an error when no MP3 exists")
	}
}
