package recognize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/soundgrab/soundgrab/internal/acquire"
	"github.com/soundgrab/soundgrab/internal/errs"
	"github.com/soundgrab/soundgrab/internal/ffmpeg"
	"github.com/soundgrab/soundgrab/internal/model"
	"github.com/soundgrab/soundgrab/internal/source"
)

// DefaultTimecodes are the offsets sampled when the caller supplies none.
var DefaultTimecodes = []float64{30, 60, 90}

// StrategyResolver yields the acquisition strategy serving a platform.
// *acquire.Set satisfies it.
type StrategyResolver interface {
	For(model.Platform) (acquire.Strategy, error)
}

// AudioEngine probes durations and cuts fingerprint samples. *ffmpeg.Engine
// satisfies it.
type AudioEngine interface {
	Duration(ctx context.Context, path string) (float64, error)
	ExtractSegment(ctx context.Context, input, output string, start, duration float64) error
}

// Options configures a recognition pipeline.
type Options struct {
	Strategies    StrategyResolver
	Fingerprinter Fingerprinter
	Resolver      *LinkResolver
	EngineDir     string
	WorkDir       string

	// Engine overrides the resolved transcoding engine. When nil the engine
	// is located per run from EngineDir and PATH.
	Engine AudioEngine

	// SegmentSeconds is the excerpt length cut at each timecode. Zero or
	// negative selects the engine default.
	SegmentSeconds float64

	// LaunchLocal hands a verified streaming link to the local URL handler.
	LaunchLocal bool

	Logger *log.Logger
}

// Pipeline downloads full audio, samples it at the requested offsets and
// aggregates fingerprint matches.
type Pipeline struct {
	opts   Options
	logger *log.Logger
}

// NewPipeline builds a recognition pipeline.
func NewPipeline(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Pipeline{opts: opts, logger: opts.Logger.With("component", "recognize")}
}

// Recognize identifies music in the media behind url. Each timecode is
// sampled independently; a failed sample skips that offset only. The full
// download is deleted afterwards unless keepFile is set.
func (p *Pipeline) Recognize(ctx context.Context, url string, timecodes []float64, keepFile bool) (model.RecognitionReport, error) {
	src, err := source.Classify(url)
	if err != nil {
		return model.RecognitionReport{}, &errs.UnsupportedSourceError{URL: url, Reason: "cannot classify source for recognition"}
	}

	engine := p.opts.Engine
	if engine == nil {
		resolved, err := ffmpeg.Resolve(p.opts.EngineDir)
		if err != nil {
			return model.RecognitionReport{}, err
		}
		engine = resolved
	}

	strat, err := p.opts.Strategies.For(src.Platform)
	if err != nil {
		return model.RecognitionReport{}, err
	}

	audioPath := filepath.Join(p.opts.WorkDir, "recognize_"+uuid.NewString()+".mp3")
	result, err := strat.Acquire(ctx, url, audioPath, "", nil)
	if err != nil {
		return model.RecognitionReport{}, err
	}
	audioPath = result.FilePath
	if !keepFile {
		defer os.Remove(audioPath)
	}

	if len(timecodes) == 0 {
		timecodes = DefaultTimecodes
	}

	// Probing the duration lets us drop offsets past the end of the file
	// before paying for a segment cut. A probe failure is not fatal; the
	// engine will reject out-of-range offsets itself.
	totalSeconds, err := engine.Duration(ctx, audioPath)
	if err != nil {
		p.logger.Warn("duration probe failed", "err", err)
		totalSeconds = 0
	}

	var matches []model.RecognitionMatch
	for _, tc := range timecodes {
		if ctx.Err() != nil {
			break
		}
		if totalSeconds > 0 && tc >= totalSeconds {
			p.logger.Debug("timecode beyond end of audio", "timecode", tc, "duration", totalSeconds)
			continue
		}
		match, err := p.sampleAt(ctx, engine, audioPath, tc)
		if err != nil {
			p.logger.Warn("sample skipped", "timecode", tc, "err", err)
			continue
		}
		if match == nil {
			continue
		}
		matches = append(matches, model.RecognitionMatch{
			TimecodeSeconds: tc,
			Title:           match.Title,
			Artist:          match.Artist,
			CoverArtURL:     match.CoverArtURL,
			ServiceURL:      match.ServiceURL,
		})
	}

	if len(matches) == 0 {
		return model.RecognitionReport{Found: false, Message: "no music identified at any sampled offset"}, nil
	}

	for i := range matches {
		matches[i].SourceLinks = p.opts.Resolver.Resolve(ctx, matches[i].Title, matches[i].Artist)
		if p.opts.LaunchLocal {
			p.opts.Resolver.LaunchLocal(matches[i].SourceLinks[model.PlatformSpotify])
		}
	}

	p.logger.Info("recognition finished", "url", url, "matches", len(matches))
	return model.RecognitionReport{Found: true, Matches: matches}, nil
}

// sampleAt cuts one segment and submits it. The segment file never outlives
// the call.
func (p *Pipeline) sampleAt(ctx context.Context, engine AudioEngine, audioPath string, timecode float64) (*Match, error) {
	segmentPath := filepath.Join(p.opts.WorkDir, fmt.Sprintf("segment_%s.mp3", uuid.NewString()))

	if err := engine.ExtractSegment(ctx, audioPath, segmentPath, timecode, p.opts.SegmentSeconds); err != nil {
		return nil, err
	}
	defer os.Remove(segmentPath)

	return p.opts.Fingerprinter.Identify(ctx, segmentPath)
}
