package fitengine

import (
	"errors"
	"fmt"
)

// The engine surfaces every failure through a small fixed vocabulary:
// validation (local, pre-network), transient (transport), terminal (the
// service said no), and timeout (a budget ran out). No raw transport error
// crosses a component boundary unwrapped.

// ValidationError is a local, synchronous input failure. It is raised before
// any network call and is always recoverable by fixing the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// TransientError wraps a transport-level failure (connection refused, reset,
// non-2xx without a parseable envelope). The poller keeps going on these; the
// submitter and mutation coordinator surface them and stop.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError is a definitive refusal from the session service
// (success:false or a FAILED generation). Retrying will not help.
type TerminalError struct {
	Op      string
	Message string
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ErrSubmissionInFlight is returned when a submission is requested while one
// is already running. The caller treats it as a no-op, not a failure.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsTerminal reports whether err is (or wraps) a TerminalError.
func IsTerminal(err error) bool {
	var t *TerminalError
	return errors.As(err, &t)
}
