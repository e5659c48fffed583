package slideshow

import (
	"errors"
	"fmt"
)

// ErrEncodeTimeout is returned when an encode exceeds its deadline. The ffmpeg
// process has been killed and temporary state removed by then.
var ErrEncodeTimeout = errors.New("slideshow encode timed out")

// ValidationError is a user-correctable request problem. Message is safe to
// show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// EncodeError means the renderer failed or produced an unusable artifact.
type EncodeError struct {
	Reason string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encode failed: %s: %v", e.Reason, e.Err)
	}
	return "encode failed: " + e.Reason
}

func (e *EncodeError) Unwrap() error { return e.Err }
