package template

import "fmt"

// MissingKey selects how a path without a value renders.
type MissingKey int

const (
	// MissingEmpty renders missing values as nothing.
	MissingEmpty MissingKey = iota

	// MissingError fails the render with ErrMissingValue.
	MissingError
)

// String returns the policy name accepted by ParseMissingKey.
func (m MissingKey) String() string {
	switch m {
	case MissingEmpty:
		return "empty"
	case MissingError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseMissingKey parses "empty" or "error".
func ParseMissingKey(s string) (MissingKey, error) {
	switch s {
	case "empty", "":
		return MissingEmpty, nil
	case "error":
		return MissingError, nil
	}
	return 0, fmt.Errorf("template: unknown missing-key policy %q", s)
}

// Default delimiters.
const (
	DefaultLeftDelim  = "{{"
	DefaultRightDelim = "}}"
)

type options struct {
	left, right string
	missing     MissingKey
}

// Option configures Compile.
type Option func(*options)

// WithDelims sets the action delimiters. Empty values keep the defaults.
func WithDelims(left, right string) Option {
	return func(o *options) {
		if left != "" {
			o.left = left
		}
		if right != "" {
			o.right = right
		}
	}
}

// WithMissingKey sets the missing value policy.
func WithMissingKey(m MissingKey) Option {
	return func(o *options) {
		o.missing = m
	}
}
