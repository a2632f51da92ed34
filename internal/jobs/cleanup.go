package jobs

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// removalFloor is the minimum grace period before a served artifact is
	// deleted, so a slow client can still finish retrieving it.
	removalFloor = 60 * time.Second

	removalMarginPerMiB = time.Second
	removalBaseMargin   = 30 * time.Second
)

// RemovalDelay sizes the deletion grace period from the artifact's byte size.
func RemovalDelay(sizeBytes int64) time.Duration {
	delay := removalBaseMargin + time.Duration(sizeBytes/(1<<20))*removalMarginPerMiB
	if delay < removalFloor {
		return removalFloor
	}
	return delay
}

// ScheduleRemoval deletes path in the background after a size-derived delay.
// Best effort only; a missing file at fire time is not an error.
func ScheduleRemoval(path string, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("cannot schedule removal", "path", path, "err", err)
		return
	}

	delay := RemovalDelay(info.Size())
	logger.Debug("scheduled artifact removal", "path", path, "delay", delay)

	time.AfterFunc(delay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("delayed removal failed", "path", path, "err", err)
		}
	})
}
