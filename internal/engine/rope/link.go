package rope

// link denotes the concatenation of two owned subtrees. Links carry no text
// of their own; a chain of appends produces a link per append, so trees of
// depth N are normal.
type link[U Unit] struct {
	header
	left  node[U]
	right node[U]
}

// newLink takes ownership of one reference to each child.
func newLink[U Unit](left, right node[U]) *link[U] {
	l := poolFor[U]().getLink()
	l.header = header{size: left.hdr().size + right.hdr().size}
	l.left = left
	l.right = right
	stats.linksAllocated.Add(1)
	return l
}

func (l *link[U]) navigate(pos int) (node[U], int, bool) {
	if ls := l.left.hdr().size; pos >= ls {
		return l.right, pos - ls, false
	}
	return l.left, pos, false
}

func (l *link[U]) append(other node[U]) node[U] {
	return newLink(retain[U](l), retain(other))
}

// flatten copies every leaf window, left to right, into one new buffer.
func (l *link[U]) flatten() *leaf[U] {
	buf := make([]U, l.size)
	cursor := 0
	walkLeaves[U](l, func(lf *leaf[U]) bool {
		cursor += copy(buf[cursor:], lf.window())
		return true
	})
	stats.flattens.Add(1)
	stats.unitsCopied.Add(uint64(cursor))
	return newLeaf(buf, 0, len(buf))
}

func (l *link[U]) free() {
	l.left = nil
	l.right = nil
	stats.linksFreed.Add(1)
	poolFor[U]().putLink(l)
}

// destroy releases the children of a link whose last owner is gone, and
// transitively every link that thereby loses its last owner.
//
// Links still needing their children released wait on an explicit stack,
// so native stack usage stays constant for any tree shape. Each iteration
// inspects the top link and releases both of its children. An unowned leaf
// child is freed on the spot. An unowned link child is deferred: the first
// one replaces the inspected entry, a second one is pushed on top of it.
// Without deferrals the entry is popped. The inspected link is freed last,
// its children being fully accounted for by then.
func destroy[U Unit](root *link[U]) {
	stack := []*link[U]{root}
	for len(stack) > 0 {
		top := len(stack) - 1
		n := stack[top]
		deferred := false

		if child, ok := releaseChild(n.left); ok {
			stack[top] = child
			deferred = true
		}
		if child, ok := releaseChild(n.right); ok {
			if deferred {
				stack = append(stack, child)
			} else {
				stack[top] = child
				deferred = true
			}
		}
		if !deferred {
			stack[top] = nil
			stack = stack[:top]
		}

		n.free()
	}
}

// releaseChild drops one owner of n. When that was the last owner a leaf is
// freed immediately and a link is returned for deferred teardown.
func releaseChild[U Unit](n node[U]) (*link[U], bool) {
	if !n.hdr().release() {
		return nil, false
	}
	switch n := n.(type) {
	case *link[U]:
		return n, true
	case *leaf[U]:
		n.free()
	}
	return nil, false
}
