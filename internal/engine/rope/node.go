package rope

// Unit is a storage unit of a rope. Positions and lengths count units, not
// code points.
type Unit interface {
	~byte | ~uint16 | ~rune
}

// header holds the state shared by both node kinds.
type header struct {
	size int // units denoted by the subtree; fixed at construction

	// owners counts owners beyond the first. A new node has exactly one
	// implicit owner (owners == 0). A negative value marks a released node.
	owners int
}

func (h *header) hdr() *header { return h }

// retain records an additional owner.
func (h *header) retain() {
	if h.owners < 0 {
		panic(errReleasedNode)
	}
	h.owners++
}

// release drops one owner and reports whether it was the last one.
// The decrement that takes owners below its initial value both signals the
// last release and leaves the node marked as released.
func (h *header) release() bool {
	if h.owners < 0 {
		panic(errReleasedNode)
	}
	h.owners--
	return h.owners < 0
}

// node is a rope tree node. Exactly two implementations exist: *leaf and
// *link.
type node[U Unit] interface {
	hdr() *header

	// navigate resolves one step of a point lookup. A leaf reports itself
	// as terminal; a link returns the child holding pos and the position
	// relative to that child.
	navigate(pos int) (next node[U], npos int, terminal bool)

	// append returns a new link over the receiver and other, retaining
	// both. Neither operand is modified.
	append(other node[U]) node[U]

	// flatten returns a leaf whose window spans its whole buffer. A leaf
	// that already does returns itself; otherwise the result is a new node
	// owned by the caller.
	flatten() *leaf[U]
}

func retain[U Unit](n node[U]) node[U] {
	n.hdr().retain()
	return n
}

// release drops one owner of n and frees it, and every node only it kept
// alive, when that was the last owner.
func release[U Unit](n node[U]) {
	if !n.hdr().release() {
		return
	}
	switch n := n.(type) {
	case *leaf[U]:
		n.free()
	case *link[U]:
		destroy(n)
	}
}

// walkLeaves visits the leaves under n from left to right.
//
// The traversal keeps pending subtrees on an explicit LIFO list instead of
// the call stack: each link pushes its right child and then its left child,
// so the left one pops first. Auxiliary space is bounded by the tree height
// and no native recursion happens regardless of shape.
func walkLeaves[U Unit](n node[U], visit func(*leaf[U]) bool) {
	pending := []node[U]{n}
	for len(pending) > 0 {
		top := pending[len(pending)-1]
		pending[len(pending)-1] = nil
		pending = pending[:len(pending)-1]

		switch top := top.(type) {
		case *link[U]:
			pending = append(pending, top.right, top.left)
		case *leaf[U]:
			if !visit(top) {
				return
			}
		}
	}
}
