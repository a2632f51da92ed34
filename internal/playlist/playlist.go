// Package playlist downloads every member of a playlist into a staging
// directory and compresses the result into a single archive. Individual
// member failures are logged and skipped; the job only fails when nothing
// could be downloaded at all.
package playlist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/soundgrab/soundgrab/internal/acquire"
	"github.com/soundgrab/soundgrab/internal/errs"
	"github.com/soundgrab/soundgrab/internal/model"
	"github.com/soundgrab/soundgrab/internal/platform"
)

const fallbackName = "Playlist"

// ProgressFunc receives coarse playlist progress: percent in [0, 100] and a
// human-readable message about the current track.
type ProgressFunc func(percent float64, message string)

// strategyResolver yields the acquisition strategy serving a platform.
// *acquire.Set satisfies it.
type strategyResolver interface {
	For(model.Platform) (acquire.Strategy, error)
}

// Orchestrator drives a full playlist acquisition.
type Orchestrator struct {
	strategies strategyResolver
	enumerate  func(ctx context.Context, url string) (string, []acquire.PlaylistEntry, error)
	workDir    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewOrchestrator builds an orchestrator staging its work under workDir.
func NewOrchestrator(strategies *acquire.Set, workDir string, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		strategies: strategies,
		enumerate:  acquire.EnumeratePlaylist,
		workDir:    workDir,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "playlist"),
	}
}

// Process downloads all members of the playlist at url and returns the
// finished archive. The staging directory is removed whether or not the run
// succeeds.
func (o *Orchestrator) Process(ctx context.Context, url string, src model.MediaSource, onProgress ProgressFunc) (model.PlaylistArchive, error) {
	name := platform.SanitizeFilename(o.probeTitle(ctx, url, src))
	if name == "" {
		name = fallbackName
	}

	stagingRoot := filepath.Join(o.workDir, uuid.NewString())
	stagingDir := filepath.Join(stagingRoot, name)
	if err := platform.EnsureDir(stagingDir); err != nil {
		return model.PlaylistArchive{}, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stagingRoot)

	var count, total int
	var err error
	if src.Platform == model.PlatformSpotify {
		count, total, err = o.downloadSpotifyBatch(ctx, url, name, stagingDir, onProgress)
	} else {
		count, total, err = o.downloadSequential(ctx, url, src, stagingDir, onProgress)
	}
	if err != nil {
		return model.PlaylistArchive{}, err
	}
	if count == 0 {
		return model.PlaylistArchive{}, &errs.EmptyPlaylistError{URL: url, Total: total}
	}

	archivePath := filepath.Join(o.workDir, name+"_compress.zip")
	if err := buildArchive(archivePath, stagingRoot, name); err != nil {
		return model.PlaylistArchive{}, fmt.Errorf("compress playlist: %w", err)
	}

	o.logger.Info("playlist archived", "name", name, "members", count, "path", archivePath)
	return model.PlaylistArchive{
		Path:        archivePath,
		DisplayName: name + "_compress",
		MemberCount: count,
	}, nil
}

// probeTitle resolves the playlist's display name. Failures fall back to a
// generic name rather than aborting the run.
func (o *Orchestrator) probeTitle(ctx context.Context, url string, src model.MediaSource) string {
	if src.Platform == model.PlatformSpotify {
		return o.scrapePageTitle(ctx, url)
	}

	title, _, err := o.enumerate(ctx, url)
	if err != nil || title == "" {
		o.logger.Warn("could not probe playlist title", "url", url, "err", err)
		return fallbackName
	}
	return title
}

var pageTitleRe = regexp.MustCompile(`<title>(.*?)</title>`)

// scrapePageTitle pulls the playlist name out of the page's title element.
func (o *Orchestrator) scrapePageTitle(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "Spotify_Playlist"
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "Spotify_Playlist"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "Spotify_Playlist"
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "Spotify_Playlist"
	}
	if m := pageTitleRe.FindStringSubmatch(string(body)); m != nil {
		title := m[1]
		title = strings.ReplaceAll(title, " | Spotify", "")
		title = strings.ReplaceAll(title, " - Spotify", "")
		return strings.TrimSpace(title)
	}
	return "Spotify_Playlist"
}

// downloadSequential enumerates the playlist and downloads members one by
// one, prefixing each file with its position so archive order matches
// playlist order. A failed member is skipped. The second return value is the
// number of members attempted.
func (o *Orchestrator) downloadSequential(ctx context.Context, url string, src model.MediaSource, stagingDir string, onProgress ProgressFunc) (int, int, error) {
	strat, err := o.strategies.For(src.Platform)
	if err != nil {
		return 0, 0, err
	}

	_, entries, err := o.enumerate(ctx, url)
	if err != nil {
		return 0, 0, fmt.Errorf("enumerate playlist: %w", err)
	}
	if len(entries) == 0 {
		return 0, 0, &errs.EmptyPlaylistError{URL: url}
	}

	var count int
	for i, entry := range entries {
		if ctx.Err() != nil {
			return count, len(entries), ctx.Err()
		}

		if onProgress != nil {
			percent := float64(i) / float64(len(entries)) * 100
			onProgress(percent, fmt.Sprintf("Downloading track %d/%d", i+1, len(entries)))
		}

		title := platform.SanitizeFilename(entry.Title)
		if title == "" {
			title = fmt.Sprintf("track_%d", i+1)
		}
		dest := filepath.Join(stagingDir, fmt.Sprintf("%03d_%s.mp3", i, title))

		if _, err := strat.Acquire(ctx, entry.URL, dest, "", nil); err != nil {
			o.logger.Warn("skipping playlist member", "index", i, "url", entry.URL, "err", err)
			continue
		}
		count++
	}
	return count, len(entries), nil
}

// downloadSpotifyBatch hands the whole playlist URL to the streaming
// service strategy in one shot; its tool downloads every track into the
// staging directory itself. The tool reports no member count, so attempted
// equals produced.
func (o *Orchestrator) downloadSpotifyBatch(ctx context.Context, url, name, stagingDir string, onProgress ProgressFunc) (int, int, error) {
	if onProgress != nil {
		onProgress(0, fmt.Sprintf("Starting playlist download %q", name))
	}

	strat, err := o.strategies.For(model.PlatformSpotify)
	if err != nil {
		return 0, 0, err
	}
	batch, ok := strat.(acquire.BatchDownloader)
	if !ok {
		return 0, 0, fmt.Errorf("streaming strategy does not support batch downloads")
	}
	if err := batch.DownloadBatch(ctx, url, stagingDir); err != nil {
		return 0, 0, err
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return 0, 0, err
	}
	var count int
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".mp3") {
			count++
		}
	}
	return count, count, nil
}
