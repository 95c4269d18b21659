package rope

import (
	"fmt"
	"slices"
)

// Rope is a handle owning at most one reference to a tree of nodes. A
// handle without a root is the empty string.
//
// Ropes are used through pointers. Clone shares the tree with a new handle
// and Release drops this handle's reference; every handle obtained from a
// constructor or operation must eventually be released. Copying a Rope by
// value is detected and panics on the next method call.
type Rope[U Unit] struct {
	addr *Rope[U] // self-pointer to detect copies by value
	root node[U]
}

// String is a rope of bytes.
type String = Rope[byte]

func wrap[U Unit](n node[U]) *Rope[U] {
	r := &Rope[U]{root: n}
	r.addr = r
	return r
}

// Empty returns a new empty rope.
func Empty[U Unit]() *Rope[U] {
	return wrap[U](nil)
}

// New returns a rope holding a copy of units.
func New[U Unit](units []U) *Rope[U] {
	if len(units) == 0 {
		return Empty[U]()
	}
	return fromOwned(slices.Clone(units))
}

// NewN returns a rope holding a copy of the first n units of units.
func NewN[U Unit](units []U, n int) (*Rope[U], error) {
	if n < 0 || n > len(units) {
		return nil, fmt.Errorf("%w: %d units of a %d-unit buffer", ErrRangeOutOfRange, n, len(units))
	}
	return New(units[:n]), nil
}

// FromString returns a byte rope holding a copy of s.
func FromString(s string) *String {
	if s == "" {
		return Empty[byte]()
	}
	return fromOwned([]byte(s))
}

// FromStringN returns a byte rope holding the first n bytes of s.
func FromStringN(s string, n int) (*String, error) {
	if n < 0 || n > len(s) {
		return nil, fmt.Errorf("%w: %d bytes of a %d-byte string", ErrRangeOutOfRange, n, len(s))
	}
	return FromString(s[:n]), nil
}

// fromOwned wraps buf, which the caller hands over and never modifies.
func fromOwned[U Unit](buf []U) *Rope[U] {
	if len(buf) == 0 {
		return Empty[U]()
	}
	return wrap[U](newLeaf(buf, 0, len(buf)))
}

func (r *Rope[U]) copyCheck() {
	if r.addr == nil {
		r.addr = r
	} else if r.addr != r {
		panic(errCopiedRope)
	}
}

// rootOf treats a nil handle as empty.
func rootOf[U Unit](r *Rope[U]) node[U] {
	if r == nil {
		return nil
	}
	r.copyCheck()
	return r.root
}

// IsEmpty reports whether the rope holds no units.
func (r *Rope[U]) IsEmpty() bool {
	return rootOf(r) == nil
}

// Len returns the number of units in the rope.
func (r *Rope[U]) Len() int {
	if n := rootOf(r); n != nil {
		return n.hdr().size
	}
	return 0
}

// At returns the unit at pos. It walks from the root to the leaf holding
// pos, so the cost is proportional to the tree height.
func (r *Rope[U]) At(pos int) (U, error) {
	var zero U
	n := rootOf(r)
	if n == nil || pos < 0 || pos >= n.hdr().size {
		return zero, fmt.Errorf("%w: position %d, length %d", ErrIndexOutOfRange, pos, r.Len())
	}
	for {
		next, npos, terminal := n.navigate(pos)
		if terminal {
			break
		}
		n, pos = next, npos
	}
	return n.(*leaf[U]).window()[pos], nil
}

// Substr returns the n units starting at pos. The result shares storage with
// r: r is materialized (see Units) and the result is a window into the flat
// buffer. A zero-length range yields an empty rope.
func (r *Rope[U]) Substr(pos, n int) (*Rope[U], error) {
	size := r.Len()
	if pos < 0 || n < 0 || pos > size-n {
		return nil, fmt.Errorf("%w: [%d, %d+%d) of length %d", ErrRangeOutOfRange, pos, pos, n, size)
	}
	if n == 0 {
		return Empty[U](), nil
	}
	r.Units()
	flat := r.root.(*leaf[U])
	return wrap[U](newLeaf(flat.buf, flat.off+pos, n)), nil
}

// Append returns the concatenation of r and other in O(1) without copying
// either. When one operand is empty the other is returned as a new handle
// sharing its tree, and no node is allocated.
func (r *Rope[U]) Append(other *Rope[U]) *Rope[U] {
	left, right := rootOf(r), rootOf(other)
	switch {
	case right == nil:
		return r.Clone()
	case left == nil:
		return other.Clone()
	}
	return wrap(left.append(right))
}

// AppendUnits returns the concatenation of r and a copy of units.
func (r *Rope[U]) AppendUnits(units []U) *Rope[U] {
	if len(units) == 0 {
		return r.Clone()
	}
	return r.appendOwned(slices.Clone(units))
}

// appendOwned is AppendUnits for a buffer handed over by the caller.
func (r *Rope[U]) appendOwned(buf []U) *Rope[U] {
	left := rootOf(r)
	if left == nil {
		return fromOwned(buf)
	}
	if len(buf) == 0 {
		return r.Clone()
	}
	return wrap(newLink(retain(left), node[U](newLeaf(buf, 0, len(buf)))))
}

// extend appends n to r in place, taking over the caller's reference to n.
func (r *Rope[U]) extend(n node[U]) {
	r.copyCheck()
	if r.root == nil {
		r.root = n
		return
	}
	r.root = newLink(r.root, n)
}

// Units returns the rope's contents as one contiguous slice. The returned
// slice is shared storage and must not be modified.
//
// The first call on a rope that is not already flat copies its leaves into a
// new buffer and rebinds this handle to the flat form; later calls return
// that buffer without copying. Other handles sharing the previous tree are
// not affected and flatten on their own first access.
func (r *Rope[U]) Units() []U {
	n := rootOf(r)
	if n == nil {
		return nil
	}
	flat := n.flatten()
	if node[U](flat) != n {
		release(n)
		r.root = flat
	}
	return flat.window()
}

// Clone returns a new handle sharing r's tree.
func (r *Rope[U]) Clone() *Rope[U] {
	n := rootOf(r)
	if n != nil {
		retain(n)
	}
	return wrap(n)
}

// Assign makes r share other's tree, releasing r's previous tree.
func (r *Rope[U]) Assign(other *Rope[U]) {
	r.copyCheck()
	if r == other {
		return
	}
	n := rootOf(other)
	if n != nil {
		retain(n)
	}
	if r.root != nil {
		release(r.root)
	}
	r.root = n
}

// Release drops r's reference to its tree, freeing every node no other
// handle still owns. Teardown uses constant stack space however deep the
// tree is. The rope is empty afterwards; releasing again is a no-op.
func (r *Rope[U]) Release() {
	if r == nil {
		return
	}
	r.copyCheck()
	if r.root != nil {
		n := r.root
		r.root = nil
		release(n)
	}
}

// Concat returns the concatenation of ropes in order.
func Concat[U Unit](ropes ...*Rope[U]) *Rope[U] {
	out := Empty[U]()
	for _, x := range ropes {
		if n := rootOf(x); n != nil {
			out.extend(retain(n))
		}
	}
	return out
}

// Join concatenates ropes, inserting sep between consecutive elements.
func Join[U Unit](ropes []*Rope[U], sep *Rope[U]) *Rope[U] {
	out := Empty[U]()
	s := rootOf(sep)
	for i, x := range ropes {
		if i > 0 && s != nil {
			out.extend(retain(s))
		}
		if n := rootOf(x); n != nil {
			out.extend(retain(n))
		}
	}
	return out
}
