package transcode

import (
	"errors"
	"fmt"
)

// ErrTranscodeTimeout indicates the transcoder produced no output within
// the startup window and was killed.
var ErrTranscodeTimeout = errors.New("transcoder produced no output within the startup window")

// ErrFilterNotAllowed indicates a filter was requested for PCM-mode input.
var ErrFilterNotAllowed = errors.New("filters are not supported for pre-mixed PCM input")

// ProcessError indicates the transcoder process failed before producing audio.
type ProcessError struct {
	Filter Filter
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("transcoder process failed (filter=%q): %v: %s", e.Filter, e.Err, e.Stderr)
	}
	return fmt.Sprintf("transcoder process failed (filter=%q): %v", e.Filter, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

var _ error = (*ProcessError)(nil)
