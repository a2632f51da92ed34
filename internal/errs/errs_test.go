package errs

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorsCarryStructuredFields(t *testing.T) {
	wrapped := fmt.Errorf("acquire: %w", &AcquisitionError{
		Platform:   "youtube",
		URL:        "https://youtube.com/watch?v=x",
		Diagnostic: "HTTP 403",
	})

	var acq *AcquisitionError
	if !As(wrapped, &acq) {
		t.Fatal("Expected As to find AcquisitionError through wrapping")
	}
	if acq.Platform != "youtube" || acq.Diagnostic != "HTTP 403" {
		t.Errorf("Unexpected fields: %+v", acq)
	}
}

func TestInvalidRangeError_Message(t *testing.T) {
	err := &InvalidRangeError{Start: 50, End: 10}
	msg := err.Error()
	if !strings.Contains(msg, "10.000") || !strings.Contains(msg, "50.000") {
		t.Errorf("Expected both bounds in message, got %q", msg)
	}
}

func TestSegmentCreationError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := &SegmentCreationError{Output: "/tmp/out.mp3", Err: cause}
	if Unwrap(err) != cause {
		t.Error("Expected Unwrap to return the underlying error")
	}
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Input: "1h2h3", Reason: "multiple hour markers"}
	if !strings.Contains(err.Error(), "1h2h3") {
		t.Errorf("Expected offending input in message, got %q", err.Error())
	}
}
