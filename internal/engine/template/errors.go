package template

import "errors"

// Parse errors. They are wrapped with the byte offset of the offending
// action.
var (
	// ErrUnclosedAction indicates a left delimiter without a matching right one.
	ErrUnclosedAction = errors.New("template: unclosed action")

	// ErrEmptyAction indicates an action with no path.
	ErrEmptyAction = errors.New("template: empty action")

	// ErrUnexpectedEnd indicates an end action outside any range.
	ErrUnexpectedEnd = errors.New("template: unexpected end")

	// ErrUnclosedRange indicates a range without its end action.
	ErrUnclosedRange = errors.New("template: unclosed range")
)

// Render errors.
var (
	// ErrInvalidData indicates the data is not valid JSON.
	ErrInvalidData = errors.New("template: data is not valid JSON")

	// ErrMissingValue indicates a path with no value under MissingError.
	ErrMissingValue = errors.New("template: missing value")

	// ErrNotIterable indicates a range over a value that is neither an
	// array nor an object.
	ErrNotIterable = errors.New("template: range over non-iterable value")

	// ErrReleased indicates use of a released template.
	ErrReleased = errors.New("template: released")
)
