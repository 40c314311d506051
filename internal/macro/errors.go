package macro

import (
	"errors"
	"fmt"
)

var (
	// ErrSetup is returned when a hook or hotkey cannot be installed.
	ErrSetup = errors.New("setup failed")

	// ErrValidation is returned when a request is rejected before any work starts.
	ErrValidation = errors.New("validation failed")

	// ErrConcurrency is returned when a playback is already running.
	ErrConcurrency = errors.New("operation already in progress")

	// ErrNotFound is returned when a macro file does not exist.
	ErrNotFound = errors.New("macro file not found")

	// ErrFormat is returned when a macro document is malformed.
	ErrFormat = errors.New("malformed macro document")
)

// SetupError carries the platform error code of a failed installation.
type SetupError struct {
	Op   string
	Code uint32
	Err  error
}

func (e *SetupError) Error() string {
	msg := "setup failed: " + e.Op
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SetupError) Unwrap() error { return e.Err }

func (e *SetupError) Is(target error) bool { return target == ErrSetup }

// FormatError describes the first problem found in a macro document.
// Index is -1 when the problem is not tied to a single record.
type FormatError struct {
	Index  int
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Index < 0:
		return "malformed macro document: " + e.Reason
	case e.Field == "":
		return fmt.Sprintf("malformed macro document: event %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("malformed macro document: event %d: %s: %s", e.Index, e.Field, e.Reason)
	}
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }
