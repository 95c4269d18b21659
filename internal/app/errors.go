package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed indicates use of an App after Close.
	ErrClosed = errors.New("app closed")

	// ErrNoWatchPaths indicates Watch was called without files.
	ErrNoWatchPaths = errors.New("no paths to watch")

	// ErrInvalidSplit indicates a non-positive chunk size for Inspect.
	ErrInvalidSplit = errors.New("split size must be positive")

	// ErrInvalidSetting indicates a script global not written as name=value.
	ErrInvalidSetting = errors.New("setting must be name=value")

	// ErrArgsWithoutCall indicates script arguments without a function to
	// pass them to.
	ErrArgsWithoutCall = errors.New("arguments need a function to call")

	// ErrScriptResult indicates a Lua function returned a value that has no
	// text form, such as a table with keys.
	ErrScriptResult = errors.New("script result is not text")
)

// OperationError records the operation and file an error came from.
type OperationError struct {
	Op     string // Operation name (e.g., "render", "script", "inspect")
	Target string // File path, if any
	Err    error  // Underlying error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func opError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Target: target, Err: err}
}
