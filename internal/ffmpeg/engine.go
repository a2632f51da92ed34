package ffmpeg

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/soundgrab/soundgrab/internal/errs"
)

// Audio output settings. Cuts are always re-encoded rather than stream-copied
// so the cut points land exactly on the requested offsets.
const (
	AudioCodec   = "libmp3lame"
	AudioBitrate = "320k"
)

// DefaultSegmentSeconds is the excerpt length used for fingerprint sampling
const DefaultSegmentSeconds = 10.0

// ffprobe invocation constants
const (
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
)

// Trim writes the [start, end) range of input to output. A nil start means
// the beginning of the file, a nil end means the end of the file. The engine
// is seeked to start and then limited by duration, not by an absolute end
// position, because seeking resets the output timeline to zero.
func (e *Engine) Trim(ctx context.Context, input, output string, start, end *float64) error {
	if start != nil && end != nil && *end <= *start {
		return &errs.InvalidRangeError{Start: *start, End: *end}
	}

	return e.run(ctx, output, BuildTrimArgs(input, output, start, end))
}

// ExtractSegment writes a fixed-length excerpt starting at start seconds.
// A non-positive duration falls back to DefaultSegmentSeconds.
func (e *Engine) ExtractSegment(ctx context.Context, input, output string, start, duration float64) error {
	if duration <= 0 {
		duration = DefaultSegmentSeconds
	}

	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(duration),
		"-vn",
		"-acodec", AudioCodec,
		"-b:a", AudioBitrate,
		output,
	}

	return e.run(ctx, output, args)
}

// Duration returns the length of an audio file in seconds using ffprobe
func (e *Engine) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, &errs.SegmentCreationError{Output: path, Diagnostic: "ffprobe failed", Err: err}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, &errs.SegmentCreationError{Output: path, Diagnostic: "unparseable ffprobe duration", Err: err}
	}
	return duration, nil
}

// run executes ffmpeg and verifies it actually produced the output file.
// Partial output is removed before surfacing an error.
func (e *Engine) run(ctx context.Context, output string, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(output)
		return &errs.SegmentCreationError{
			Output:     output,
			Diagnostic: lastLine(stderr.String()),
			Err:        err,
		}
	}

	if !fileExists(output) {
		return &errs.SegmentCreationError{Output: output, Diagnostic: "engine exited cleanly but produced no file"}
	}
	return nil
}

// BuildTrimArgs exposes the argument construction for testing without a
// resolved engine.
func BuildTrimArgs(input, output string, start, end *float64) []string {
	args := []string{"-y"}
	if start != nil {
		args = append(args, "-ss", formatSeconds(*start))
	}
	args = append(args, "-i", input)
	switch {
	case start != nil && end != nil:
		args = append(args, "-t", formatSeconds(*end-*start))
	case end != nil:
		args = append(args, "-t", formatSeconds(*end))
	}
	args = append(args, "-vn", "-acodec", AudioCodec, "-b:a", AudioBitrate, output)
	return args
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
