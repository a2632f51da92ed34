package acquire

import (
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/soundgrab/soundgrab/internal/model"
)

const (
	progressInterval = 500 * time.Millisecond

	// etaBandSeconds widens the point ETA into a displayed range.
	etaBandSeconds = 5
)

// normalizeProgress converts one raw engine update into the snapshot handed to
// callers. Percent is always clamped to [0, 100].
func normalizeProgress(update *ytdlp.ProgressUpdate) model.Progress {
	p := model.Progress{
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
	}

	if update.TotalBytes > 0 {
		p.Percent = clampPercent(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
	}

	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			p.BytesPerSecond = float64(update.DownloadedBytes) / elapsed.Seconds()
		}
	}

	if eta := update.ETA(); eta > 0 {
		p.ETASeconds = eta.Seconds()
	} else if p.BytesPerSecond > 0 && update.TotalBytes > update.DownloadedBytes {
		remaining := float64(update.TotalBytes - update.DownloadedBytes)
		p.ETASeconds = remaining / p.BytesPerSecond
	}

	p.ETALowSec, p.ETAHighSec = etaBand(p.ETASeconds)

	if update.Status == ytdlp.ProgressStatusFinished ||
		update.Status == ytdlp.ProgressStatusPostProcessing {
		p.Converting = true
		p.Percent = 100
	}

	return p
}

// etaBand fuzzes a point estimate into a range. A zero estimate yields no band.
func etaBand(seconds float64) (low, high int) {
	if seconds <= 0 {
		return 0, 0
	}
	point := int(seconds)
	low = point - etaBandSeconds
	if low < 0 {
		low = 0
	}
	return low, point + etaBandSeconds
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
