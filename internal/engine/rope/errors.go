package rope

import "errors"

// Errors returned by rope operations.
var (
	// ErrIndexOutOfRange indicates a position outside [0, Len()).
	ErrIndexOutOfRange = errors.New("rope: index out of range")

	// ErrRangeOutOfRange indicates a range that does not fit the rope or buffer.
	ErrRangeOutOfRange = errors.New("rope: range out of range")
)

// Panic messages for ownership misuse.
const (
	errReleasedNode = "rope: use of released node"
	errCopiedRope   = "rope: illegal use of Rope copied by value"
)
