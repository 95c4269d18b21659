package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when execution runs past the state's
	// deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoResult is returned by Run when the chunk returns nothing usable.
	ErrNoResult = errors.New("lua chunk returned no result")

	// ErrFunctionNotFound is returned by Call for a global that is not a
	// function.
	ErrFunctionNotFound = errors.New("lua function not found")
)

var errReleasedRope = errors.New("rope already released")
