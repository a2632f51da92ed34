package acquire

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/ffmpeg"
	"github.com/soundgrab/soundgrab/internal/model"
	"github.com/soundgrab/soundgrab/internal/platform"
)

const spotdlTimeout = 10 * time.Minute

// spotifyStrategy acquires tracks from the streaming service. The dedicated
// download tool is preferred; when it is absent or fails, the track page is
// scraped for title and artist and the download is delegated to the video
// strategy as a search query.
type spotifyStrategy struct {
	command    string
	engineDir  string
	bitrate    string
	httpClient *http.Client
	video      Strategy
	logger     *log.Logger
}

func newSpotifyStrategy(opts Options, video Strategy) *spotifyStrategy {
	return &spotifyStrategy{
		command:    opts.SpotdlCommand,
		engineDir:  opts.EngineDir,
		bitrate:    opts.Bitrate,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		video:      video,
		logger:     opts.Logger.With("platform", model.PlatformSpotify.String()),
	}
}

func (s *spotifyStrategy) Platform() model.Platform { return model.PlatformSpotify }

func (s *spotifyStrategy) Acquire(ctx context.Context, url, destPath, customName string, onProgress model.ProgressFunc) (model.AcquisitionResult, error) {
	engine, err := ffmpeg.Resolve(s.engineDir)
	if err != nil {
		return model.AcquisitionResult{}, err
	}

	primaryErr := s.acquireWithTool(ctx, engine, url, destPath, customName, onProgress)
	if primaryErr == nil {
		return s.finishToolResult(destPath, customName)
	}
	s.logger.Warn("dedicated tool failed, falling back to video search", "err", primaryErr)

	result, fallbackErr := s.acquireViaSearch(ctx, url, destPath, customName, onProgress)
	if fallbackErr != nil {
		diag := fmt.Sprintf("primary: %v; fallback: %v", primaryErr, fallbackErr)
		return model.AcquisitionResult{}, acquisitionError(model.PlatformSpotify, url, diag, fallbackErr)
	}
	return result, nil
}

// acquireWithTool runs the dedicated tool as a subprocess. Its output lands in
// the destination directory under a name the tool chose; the newest MP3 is
// then moved onto destPath.
func (s *spotifyStrategy) acquireWithTool(ctx context.Context, engine *ffmpeg.Engine, url, destPath, customName string, onProgress model.ProgressFunc) error {
	if onProgress != nil {
		onProgress(model.Progress{Percent: 10})
	}
	return s.runTool(ctx, engine, url, filepath.Dir(destPath))
}

// DownloadBatch downloads every track of a playlist URL into destDir.
func (s *spotifyStrategy) DownloadBatch(ctx context.Context, url, destDir string) error {
	engine, err := ffmpeg.Resolve(s.engineDir)
	if err != nil {
		return err
	}
	return s.runTool(ctx, engine, url, destDir)
}

func (s *spotifyStrategy) runTool(ctx context.Context, engine *ffmpeg.Engine, url, outputDir string) error {
	bin, err := exec.LookPath(s.command)
	if err != nil {
		return fmt.Errorf("%s is not installed", s.command)
	}

	args := []string{
		url,
		"--output", outputDir,
		"--format", "mp3",
		"--bitrate", s.bitrate,
		"--simple-tui",
		"--ffmpeg", engine.FFmpegPath(),
	}

	runCtx, cancel := context.WithTimeout(ctx, spotdlTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %s", s.command, lastLine(stderr.String()))
	}
	return nil
}

// finishToolResult locates the tool's output, moves it onto the requested
// path and sweeps leftovers.
func (s *spotifyStrategy) finishToolResult(destPath, customName string) (model.AcquisitionResult, error) {
	dir := filepath.Dir(destPath)
	stem := strings.TrimSuffix(filepath.Base(destPath), filepath.Ext(destPath))

	produced, ok := platform.FindNewestWithStem(dir, "", ".mp3")
	if !ok {
		return model.AcquisitionResult{}, fmt.Errorf("tool reported success but no MP3 found in %s", dir)
	}

	platform.SweepIntermediates(dir, stem)

	name := customName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(produced), ".mp3")
	}
	name = platform.SanitizeFilename(name)

	if produced != destPath {
		os.Remove(destPath)
		if err := os.Rename(produced, destPath); err != nil {
			return model.AcquisitionResult{}, fmt.Errorf("move tool output: %w", err)
		}
	}

	s.logger.Info("acquisition finished", "path", destPath)
	return model.AcquisitionResult{FilePath: destPath, DisplayName: name}, nil
}

// acquireViaSearch scrapes the track page and hands a search query to the
// video strategy.
func (s *spotifyStrategy) acquireViaSearch(ctx context.Context, url, destPath, customName string, onProgress model.ProgressFunc) (model.AcquisitionResult, error) {
	track, err := scrapeTrackPage(ctx, s.httpClient, url)
	if err != nil {
		return model.AcquisitionResult{}, err
	}

	query := track.SearchQuery()
	s.logger.Info("searching video platform", "query", query)

	return s.video.Acquire(ctx, "ytsearch1:"+query, destPath, customName, onProgress)
}
