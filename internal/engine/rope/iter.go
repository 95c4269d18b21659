package rope

import (
	"io"
	"iter"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"
)

// Chunks returns an iterator over the rope's leaf windows in order. Nothing
// is flattened or copied; the yielded slices are shared storage and must not
// be modified.
func (r *Rope[U]) Chunks() iter.Seq[[]U] {
	return func(yield func([]U) bool) {
		n := rootOf(r)
		if n == nil {
			return
		}
		walkLeaves(n, func(l *leaf[U]) bool {
			return yield(l.window())
		})
	}
}

// NodeInfo describes one node during Walk.
type NodeInfo[U Unit] struct {
	Depth  int  // 0 for the root
	Leaf   bool // false for links
	Size   int
	Owners int // owning handles and parent links

	// Repeat marks a shared node already visited through another path.
	// Its children are not visited again.
	Repeat bool

	// Units is the leaf window, nil for links. Shared storage.
	Units []U
}

// Walk visits the tree in pre-order, left before right, until visit returns
// false. Like every traversal in this package it uses an explicit stack.
//
// A subtree reachable through several paths, as in r.Append(r), is expanded
// once; later paths report its root with Repeat set. Walk therefore costs
// O(distinct nodes), not O(logical length).
func (r *Rope[U]) Walk(visit func(NodeInfo[U]) bool) {
	type frame struct {
		n     node[U]
		depth int
	}
	root := rootOf(r)
	if root == nil {
		return
	}
	// Only nodes with more than one owner can be reached twice.
	seen := make(map[node[U]]bool)
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		h := f.n.hdr()
		info := NodeInfo[U]{Depth: f.depth, Size: h.size, Owners: h.owners + 1}
		if h.owners > 0 {
			info.Repeat = seen[f.n]
			seen[f.n] = true
		}
		switch n := f.n.(type) {
		case *leaf[U]:
			info.Leaf = true
			info.Units = n.window()
		case *link[U]:
			if !info.Repeat {
				stack = append(stack, frame{n.right, f.depth + 1}, frame{n.left, f.depth + 1})
			}
		}
		if !visit(info) {
			return
		}
	}
}

// Depth returns the height of the tree: 0 for an empty rope, 1 for a single
// leaf. Shared subtrees are measured once.
func (r *Rope[U]) Depth() int {
	root := rootOf(r)
	if root == nil {
		return 0
	}

	type frame struct {
		n    node[U]
		done bool // children measured, heights on top of the stack
	}
	memo := make(map[node[U]]int)
	stack := []frame{{n: root}}
	var heights []int
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		shared := f.n.hdr().owners > 0
		l, isLink := f.n.(*link[U])
		switch {
		case !isLink:
			heights = append(heights, 1)
		case f.done:
			k := len(heights)
			h := max(heights[k-2], heights[k-1]) + 1
			heights = heights[:k-2]
			if shared {
				memo[f.n] = h
			}
			heights = append(heights, h)
		default:
			if shared {
				if h, ok := memo[f.n]; ok {
					heights = append(heights, h)
					continue
				}
			}
			stack = append(stack, frame{n: f.n, done: true}, frame{n: l.right}, frame{n: l.left})
		}
	}
	return heights[0]
}

// String materializes the rope and returns it as text. Byte units are taken
// verbatim, uint16 units are decoded as UTF-16 and 32-bit units as code
// points.
func (r *Rope[U]) String() string {
	return string(appendText(nil, r.Units()))
}

// WriteTo writes the rope as text (see String) to w. Byte and 32-bit ropes
// are streamed leaf by leaf without materializing; UTF-16 ropes are
// materialized first so surrogate pairs split across leaves decode
// correctly.
func (r *Rope[U]) WriteTo(w io.Writer) (int64, error) {
	var zero U
	if unsafe.Sizeof(zero) == 2 {
		n, err := w.Write(appendText(nil, r.Units()))
		return int64(n), err
	}

	var total int64
	var scratch []byte
	for chunk := range r.Chunks() {
		var p []byte
		if b, ok := any(chunk).([]byte); ok {
			p = b
		} else {
			scratch = appendText(scratch[:0], chunk)
			p = scratch
		}
		n, err := w.Write(p)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// appendText appends units to dst as UTF-8 text.
func appendText[U Unit](dst []byte, units []U) []byte {
	if b, ok := any(units).([]byte); ok {
		return append(dst, b...)
	}
	var zero U
	switch unsafe.Sizeof(zero) {
	case 1:
		for _, u := range units {
			dst = append(dst, byte(u))
		}
	case 2:
		for i := 0; i < len(units); i++ {
			c := rune(units[i])
			if utf16.IsSurrogate(c) && i+1 < len(units) {
				if d := utf16.DecodeRune(c, rune(units[i+1])); d != utf8.RuneError {
					c = d
					i++
				}
			}
			dst = utf8.AppendRune(dst, c)
		}
	default:
		for _, u := range units {
			dst = utf8.AppendRune(dst, rune(u))
		}
	}
	return dst
}
