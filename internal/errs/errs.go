// Package errs defines the typed error taxonomy shared across the acquisition,
// trimming and recognition pipelines. Every error carries structured fields so
// callers can test and display failures without parsing prose.
package errs

import (
	"errors"
	"fmt"
)

// Re-export standard library helpers so callers only import this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// UnrecognizedSourceError means a URL matched none of the supported platforms.
type UnrecognizedSourceError struct {
	URL string
}

func (e *UnrecognizedSourceError) Error() string {
	return fmt.Sprintf("unrecognized source URL: %s", e.URL)
}

// UnsupportedSourceError means the source was classified but the requested
// operation cannot run against it.
type UnsupportedSourceError struct {
	URL    string
	Reason string
}

func (e *UnsupportedSourceError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unsupported source: %s", e.URL)
	}
	return fmt.Sprintf("unsupported source %s: %s", e.URL, e.Reason)
}

// EngineMissingError means a required external binary could not be located in
// the bundled directory nor on the system PATH.
type EngineMissingError struct {
	Engine string
	Hint   string
}

func (e *EngineMissingError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s is not available", e.Engine)
	}
	return fmt.Sprintf("%s is not available: %s", e.Engine, e.Hint)
}

// InvalidRangeError means a trim request had end <= start.
type InvalidRangeError struct {
	Start float64
	End   float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid trim range: end (%.3fs) must be greater than start (%.3fs)", e.End, e.Start)
}

// SegmentCreationError means the transcoding engine ran but produced no usable
// output. Diagnostic carries the engine's stderr.
type SegmentCreationError struct {
	Output     string
	Diagnostic string
	Err        error
}

func (e *SegmentCreationError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("failed to create %s: %s", e.Output, e.Diagnostic)
	}
	return fmt.Sprintf("failed to create %s: %v", e.Output, e.Err)
}

func (e *SegmentCreationError) Unwrap() error { return e.Err }

// ParseError means a timecode string did not match any supported notation.
// Input is the offending substring, not the whole composite request.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid timecode %q", e.Input)
	}
	return fmt.Sprintf("invalid timecode %q: %s", e.Input, e.Reason)
}

// EmptyPlaylistError means no playlist member could be acquired.
type EmptyPlaylistError struct {
	URL   string
	Total int
}

func (e *EmptyPlaylistError) Error() string {
	return fmt.Sprintf("no items could be downloaded from playlist %s (%d attempted)", e.URL, e.Total)
}

// AcquisitionError is the catch-all download failure. Diagnostic carries the
// underlying engine's output verbatim for display.
type AcquisitionError struct {
	Platform   string
	URL        string
	Diagnostic string
	Err        error
}

func (e *AcquisitionError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("%s download failed: %s", e.Platform, e.Diagnostic)
	}
	return fmt.Sprintf("%s download failed: %v", e.Platform, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }
