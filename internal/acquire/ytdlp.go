package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"

	"github.com/soundgrab/soundgrab/internal/ffmpeg"
	"github.com/soundgrab/soundgrab/internal/model"
	"github.com/soundgrab/soundgrab/internal/platform"
)

// probeInfo is the subset of the engine's JSON dump we care about.
type probeInfo struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Duration float64      `json:"duration"`
	Entries  []probeEntry `json:"entries"`
}

type probeEntry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PlaylistEntry is one enumerated playlist member.
type PlaylistEntry struct {
	URL   string
	Title string
}

// mediaStrategy acquires audio from platforms served directly by the
// download engine. One instance per platform, differing only in the
// fallback title used when the probed metadata carries no title.
type mediaStrategy struct {
	platform      model.Platform
	fallbackTitle string
	engineDir     string
	bitrate       string
	logger        *log.Logger

	probe func(ctx context.Context, url string) (*probeInfo, error)
	run   func(ctx context.Context, engine *ffmpeg.Engine, url, destPath string, onProgress model.ProgressFunc) error
}

func newMediaStrategy(p model.Platform, fallbackTitle string, opts Options) *mediaStrategy {
	m := &mediaStrategy{
		platform:      p,
		fallbackTitle: fallbackTitle,
		engineDir:     opts.EngineDir,
		bitrate:       opts.Bitrate,
		logger:        opts.Logger.With("platform", p.String()),
	}
	m.probe = probeMetadata
	m.run = m.download
	return m
}

func (m *mediaStrategy) Platform() model.Platform { return m.platform }

// Acquire downloads url and transcodes it into destPath. The display name is
// customName when given, otherwise the probed title, otherwise a generic
// per-platform fallback.
func (m *mediaStrategy) Acquire(ctx context.Context, url, destPath, customName string, onProgress model.ProgressFunc) (model.AcquisitionResult, error) {
	engine, err := ffmpeg.Resolve(m.engineDir)
	if err != nil {
		return model.AcquisitionResult{}, err
	}

	// A probe failure aborts the acquisition; the fallback title applies
	// only when the probe succeeds but the platform reports no title.
	title := customName
	if title == "" {
		probed, probeErr := m.probeTitle(ctx, url)
		if probeErr != nil {
			return model.AcquisitionResult{}, acquisitionError(m.platform, url, lastLine(probeErr.Error()), probeErr)
		}
		title = probed
	}
	title = platform.SanitizeFilename(title)
	if title == "" {
		title = m.fallbackTitle
	}

	if err := m.run(ctx, engine, url, destPath, onProgress); err != nil {
		return model.AcquisitionResult{}, acquisitionError(m.platform, url, lastLine(err.Error()), err)
	}

	dir := filepath.Dir(destPath)
	stem := strings.TrimSuffix(filepath.Base(destPath), filepath.Ext(destPath))
	platform.SweepIntermediates(dir, stem)

	produced, err := locateOutput(dir, destPath, stem)
	if err != nil {
		return model.AcquisitionResult{}, acquisitionError(m.platform, url, "", err)
	}

	if tagErr := ApplyTags(produced, title, ""); tagErr != nil {
		m.logger.Warn("could not tag output", "path", produced, "err", tagErr)
	}

	m.logger.Info("acquisition finished", "url", url, "path", produced)
	return model.AcquisitionResult{FilePath: produced, DisplayName: title}, nil
}

// probeTitle fetches the media title without downloading anything. An empty
// title with a nil error means the probe succeeded but the platform reported
// no title.
func (m *mediaStrategy) probeTitle(ctx context.Context, url string) (string, error) {
	info, err := m.probe(ctx, url)
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (m *mediaStrategy) download(ctx context.Context, engine *ffmpeg.Engine, url, destPath string, onProgress model.ProgressFunc) error {
	base := strings.TrimSuffix(destPath, filepath.Ext(destPath))

	dl := ytdlp.New().
		ForceOverwrites().
		NoPlaylist().
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality(m.bitrate).
		FFmpegLocation(engine.Dir()).
		Output(base + ".%(ext)s")

	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		if onProgress != nil {
			onProgress(normalizeProgress(&update))
		}
	})

	_, err := dl.Run(ctx, url)
	return err
}

// probeMetadata runs a simulated extraction and decodes the JSON dump.
func probeMetadata(ctx context.Context, url string) (*probeInfo, error) {
	result, err := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		DumpSingleJSON().
		Run(ctx, url)
	if err != nil {
		return nil, err
	}

	var info probeInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", url, err)
	}
	return &info, nil
}

// EnumeratePlaylist lists the members of a playlist without downloading them.
// The returned title may be empty when the platform reports none.
func EnumeratePlaylist(ctx context.Context, url string) (string, []PlaylistEntry, error) {
	result, err := ytdlp.New().
		FlatPlaylist().
		SkipDownload().
		DumpSingleJSON().
		Run(ctx, url)
	if err != nil {
		return "", nil, err
	}

	var info probeInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return "", nil, fmt.Errorf("decode playlist metadata for %s: %w", url, err)
	}

	entries := make([]PlaylistEntry, 0, len(info.Entries))
	for _, e := range info.Entries {
		item := PlaylistEntry{URL: e.URL, Title: e.Title}
		if item.URL == "" && e.ID != "" {
			item.URL = "https://www.youtube.com/watch?v=" + e.ID
		}
		if item.URL != "" {
			entries = append(entries, item)
		}
	}
	return info.Title, entries, nil
}

// locateOutput returns the finished MP3. The expected path is checked first;
// when the engine picked a different name the newest MP3 sharing the stem is
// taken instead.
func locateOutput(dir, expected, stem string) (string, error) {
	if platform.FileExists(expected) {
		return expected, nil
	}
	if found, ok := platform.FindNewestWithStem(dir, stem, ".mp3"); ok {
		return found, nil
	}
	return "", fmt.Errorf("download reported success but no MP3 was produced in %s", dir)
}

// lastLine trims a multi-line engine diagnostic down to its final line.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
