package model

import "time"

// JobState represents the lifecycle state of a background job
type JobState string

const (
	// JobStateStarting means the job has been accepted but no bytes moved yet
	JobStateStarting JobState = "starting"

	// JobStateDownloading means the acquisition engine is transferring data
	JobStateDownloading JobState = "downloading"

	// JobStateConverting means the download finished and transcoding is running
	JobStateConverting JobState = "converting"

	// JobStateCompleted means the job finished successfully (terminal)
	JobStateCompleted JobState = "completed"

	// JobStateError means the job failed (terminal)
	JobStateError JobState = "error"
)

// String returns the string representation of JobState
func (s JobState) String() string {
	return string(s)
}

// IsTerminal returns true once a job can no longer change state
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateError
}

// JobKind identifies what a job produces
type JobKind string

const (
	JobKindSingle      JobKind = "single"
	JobKindPlaylist    JobKind = "playlist"
	JobKindRecognition JobKind = "recognition"
)

// JobResult describes the artifact a completed job left behind
type JobResult struct {
	ArtifactPath string `json:"artifact_path"`
	DisplayName  string `json:"display_name"`
	IsArchive    bool   `json:"is_archive"`
}

// Job is the full progress record for one background operation. Records are
// replaced wholesale in the progress store; readers never see a partially
// updated job.
type Job struct {
	ID         string     `json:"id"`
	Kind       JobKind    `json:"kind"`
	State      JobState   `json:"state"`
	Percent    float64    `json:"percent"`
	Message    string     `json:"message,omitempty"`
	ETALowSec  int        `json:"eta_low_sec,omitempty"`
	ETAHighSec int        `json:"eta_high_sec,omitempty"`
	Result     *JobResult `json:"result,omitempty"`

	// Recognition is set on completed recognition jobs only.
	Recognition *RecognitionReport `json:"recognition,omitempty"`

	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Equal reports whether two job records carry the same observable content.
// UpdatedAt is ignored so that a rewrite of identical data does not wake
// streaming subscribers.
func (j Job) Equal(other Job) bool {
	if j.ID != other.ID || j.Kind != other.Kind || j.State != other.State ||
		j.Percent != other.Percent || j.Message != other.Message ||
		j.ETALowSec != other.ETALowSec || j.ETAHighSec != other.ETAHighSec ||
		j.Error != other.Error {
		return false
	}
	if (j.Result == nil) != (other.Result == nil) {
		return false
	}
	if j.Result != nil && *j.Result != *other.Result {
		return false
	}
	// Recognition reports are written once, at completion; presence is enough
	// to detect the change.
	if (j.Recognition == nil) != (other.Recognition == nil) {
		return false
	}
	return true
}

// Progress is a normalized snapshot of a transfer in flight. The ETA band is
// intentionally fuzzed to a +/- 5 second range rather than a point estimate.
type Progress struct {
	Percent         float64
	DownloadedBytes int64
	TotalBytes      int64
	BytesPerSecond  float64
	ETASeconds      float64
	ETALowSec       int
	ETAHighSec      int
	Converting      bool
}

// ProgressFunc receives progress snapshots during an acquisition
type ProgressFunc func(Progress)
