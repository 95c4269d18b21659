package rope

// leaf is a window [off, off+size) into an immutable buffer. Several leaves
// may share one buffer.
type leaf[U Unit] struct {
	header
	buf []U
	off int
}

// newLeaf returns a leaf over buf[off:off+n] with a single owner. The
// caller guarantees buf is never modified afterwards.
func newLeaf[U Unit](buf []U, off, n int) *leaf[U] {
	l := poolFor[U]().getLeaf()
	l.header = header{size: n}
	l.buf = buf
	l.off = off
	stats.leavesAllocated.Add(1)
	return l
}

func (l *leaf[U]) window() []U {
	return l.buf[l.off : l.off+l.size : l.off+l.size]
}

func (l *leaf[U]) spansBuffer() bool {
	return l.off == 0 && l.size == len(l.buf)
}

func (l *leaf[U]) navigate(pos int) (node[U], int, bool) {
	return l, pos, true
}

func (l *leaf[U]) append(other node[U]) node[U] {
	return newLink(retain[U](l), retain(other))
}

func (l *leaf[U]) flatten() *leaf[U] {
	if l.spansBuffer() {
		return l
	}
	buf := make([]U, l.size)
	copy(buf, l.window())
	stats.flattens.Add(1)
	stats.unitsCopied.Add(uint64(l.size))
	return newLeaf(buf, 0, len(buf))
}

// free recycles a leaf whose last owner is gone. The buffer itself is
// left to the garbage collector since other leaves may still view it.
func (l *leaf[U]) free() {
	l.buf = nil
	l.off = 0
	stats.leavesFreed.Add(1)
	poolFor[U]().putLeaf(l)
}
