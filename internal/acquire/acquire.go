package acquire

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/errs"
	"github.com/soundgrab/soundgrab/internal/model"
)

// Strategy turns a single media URL into one finished MP3 on disk.
type Strategy interface {
	// Platform reports which platform this strategy serves.
	Platform() model.Platform

	// Acquire downloads the media behind url and produces destPath. When
	// customName is non-empty it overrides the probed title as the display
	// name. onProgress may be nil.
	Acquire(ctx context.Context, url, destPath, customName string, onProgress model.ProgressFunc) (model.AcquisitionResult, error)
}

// BatchDownloader is implemented by strategies whose external tool can
// download a whole playlist into a directory in one run.
type BatchDownloader interface {
	DownloadBatch(ctx context.Context, url, destDir string) error
}

// Options carries the knobs shared by every strategy.
type Options struct {
	// EngineDir is the directory checked for a bundled engine before PATH.
	EngineDir string

	// Bitrate is the target audio bitrate, e.g. "320k".
	Bitrate string

	// SpotdlCommand names the dedicated streaming-service download tool.
	SpotdlCommand string

	Logger *log.Logger
}

// Set holds one strategy per supported platform.
type Set struct {
	strategies map[model.Platform]Strategy
}

// NewSet builds the full strategy set.
func NewSet(opts Options) *Set {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	yt := newMediaStrategy(model.PlatformYouTube, "video", opts)
	sc := newMediaStrategy(model.PlatformSoundCloud, "sound", opts)
	ig := newMediaStrategy(model.PlatformInstagram, "instagram_reel", opts)
	sp := newSpotifyStrategy(opts, yt)

	return &Set{strategies: map[model.Platform]Strategy{
		model.PlatformYouTube:    yt,
		model.PlatformSoundCloud: sc,
		model.PlatformInstagram:  ig,
		model.PlatformSpotify:    sp,
	}}
}

// For returns the strategy serving platform.
func (s *Set) For(platform model.Platform) (Strategy, error) {
	strat, ok := s.strategies[platform]
	if !ok {
		return nil, fmt.Errorf("no acquisition strategy for platform %q", platform)
	}
	return strat, nil
}

func acquisitionError(platform model.Platform, url, diagnostic string, err error) error {
	return &errs.AcquisitionError{
		Platform:   string(platform),
		URL:        url,
		Diagnostic: diagnostic,
		Err:        err,
	}
}
