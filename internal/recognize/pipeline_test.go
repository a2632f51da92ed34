package recognize

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/acquire"
	"github.com/soundgrab/soundgrab/internal/model"
)

type stubStrategy struct{}

func (stubStrategy) Platform() model.Platform { return model.PlatformYouTube }

func (stubStrategy) Acquire(ctx context.Context, url, destPath, customName string, onProgress model.ProgressFunc) (model.AcquisitionResult, error) {
	if err := os.WriteFile(destPath, []byte("audio"), 0o644); err != nil {
		return model.AcquisitionResult{}, err
	}
	return model.AcquisitionResult{FilePath: destPath, DisplayName: "track"}, nil
}

type stubResolver struct{}

func (stubResolver) For(model.Platform) (acquire.Strategy, error) { return stubStrategy{}, nil }

// fakeEngine records the offsets it was asked to cut and fails the ones
// listed in failOffsets.
type fakeEngine struct {
	durationSeconds float64
	failOffsets     map[float64]bool
	cuts            []float64
}

func (f *fakeEngine) Duration(ctx context.Context, path string) (float64, error) {
	return f.durationSeconds, nil
}

func (f *fakeEngine) ExtractSegment(ctx context.Context, input, output string, start, duration float64) error {
	f.cuts = append(f.cuts, start)
	if f.failOffsets[start] {
		return errors.New("cut failed")
	}
	return os.WriteFile(output, []byte("segment"), 0o644)
}

// queueFingerprinter returns its canned results in call order.
type queueFingerprinter struct {
	results []*Match
	calls   int
}

func (q *queueFingerprinter) Identify(ctx context.Context, samplePath string) (*Match, error) {
	if q.calls >= len(q.results) {
		return nil, nil
	}
	m := q.results[q.calls]
	q.calls++
	return m, nil
}

func newTestPipeline(t *testing.T, engine AudioEngine, fp Fingerprinter) *Pipeline {
	t.Helper()
	logger := log.New(io.Discard)
	return NewPipeline(Options{
		Strategies:    stubResolver{},
		Fingerprinter: fp,
		Resolver:      NewLinkResolver("", "", logger),
		WorkDir:       t.TempDir(),
		Engine:        engine,
		Logger:        logger,
	})
}

func TestRecognizeSkipsFailedOffsets(t *testing.T) {
	engine := &fakeEngine{
		durationSeconds: 120,
		failOffsets:     map[float64]bool{60: true},
	}
	fp := &queueFingerprinter{results: []*Match{
		{Title: "Song A", Artist: "Artist A"}, // offset 30
		nil, // offset 90
	}}
	p := newTestPipeline(t, engine, fp)

	report, err := p.Recognize(context.Background(), "https://www.youtube.com/watch?v=abc", []float64{30, 60, 90, 150}, false)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if !report.Found {
		t.Error("expected a match to be found")
	}
	if len(report.Matches) != 1 {
		t.Fatalf("got %d matches, want 1: %+v", len(report.Matches), report.Matches)
	}
	match := report.Matches[0]
	if match.TimecodeSeconds != 30 {
		t.Errorf("TimecodeSeconds = %v, want 30", match.TimecodeSeconds)
	}
	if match.Title != "Song A" || match.Artist != "Artist A" {
		t.Errorf("unexpected match %+v", match)
	}
	if match.SourceLinks[model.PlatformYouTube] == "" {
		t.Error("expected a constructed source link for each platform")
	}

	// 150 lies past the probed duration and must never reach the engine.
	want := []float64{30, 60, 90}
	if len(engine.cuts) != len(want) {
		t.Fatalf("engine cut offsets %v, want %v", engine.cuts, want)
	}
	for i, offset := range want {
		if engine.cuts[i] != offset {
			t.Errorf("cut[%d] = %v, want %v", i, engine.cuts[i], offset)
		}
	}
}

func TestRecognizeNothingIdentified(t *testing.T) {
	engine := &fakeEngine{durationSeconds: 120}
	p := newTestPipeline(t, engine, &queueFingerprinter{})

	report, err := p.Recognize(context.Background(), "https://www.youtube.com/watch?v=abc", nil, false)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if report.Found {
		t.Error("expected Found to be false when every offset comes back empty")
	}
	if report.Message == "" {
		t.Error("expected an explanatory message")
	}
	if len(engine.cuts) != len(DefaultTimecodes) {
		t.Errorf("engine cut %d segments, want one per default offset (%d)", len(engine.cuts), len(DefaultTimecodes))
	}
}
