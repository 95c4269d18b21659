package rope

import (
	"io"
	"unicode/utf8"
)

// Builder accumulates a byte rope through appends. Every write is an O(1)
// append of one new leaf; no previously written data is copied again.
// The zero value is ready to use. A Builder must not be copied after first
// use.
type Builder struct {
	addr *Builder
	r    String
}

var (
	_ io.Writer       = (*Builder)(nil)
	_ io.StringWriter = (*Builder)(nil)
	_ io.ByteWriter   = (*Builder)(nil)
)

// NewBuilder creates a new rope builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) copyCheck() {
	if b.addr == nil {
		b.addr = b
	} else if b.addr != b {
		panic("rope: illegal use of Builder copied by value")
	}
}

// write appends buf, which the builder takes over.
func (b *Builder) write(buf []byte) {
	b.copyCheck()
	if len(buf) == 0 {
		return
	}
	b.r.extend(newLeaf(buf, 0, len(buf)))
}

// Write implements io.Writer. p is copied.
func (b *Builder) Write(p []byte) (int, error) {
	b.write(append([]byte(nil), p...))
	return len(p), nil
}

// WriteString appends s.
func (b *Builder) WriteString(s string) (int, error) {
	b.write([]byte(s))
	return len(s), nil
}

// WriteByte appends a single byte.
func (b *Builder) WriteByte(c byte) error {
	b.write([]byte{c})
	return nil
}

// WriteRune appends the UTF-8 encoding of c.
func (b *Builder) WriteRune(c rune) (int, error) {
	buf := utf8.AppendRune(nil, c)
	b.write(buf)
	return len(buf), nil
}

// WriteRope appends r, sharing its tree.
func (b *Builder) WriteRope(r *String) {
	b.copyCheck()
	if n := rootOf(r); n != nil {
		b.r.extend(retain(n))
	}
}

// Len returns the number of bytes written.
func (b *Builder) Len() int {
	return b.r.Len()
}

// Rope returns a handle sharing the accumulated rope. The builder stays
// usable.
func (b *Builder) Rope() *String {
	b.copyCheck()
	return b.r.Clone()
}

// Build hands the accumulated rope over to the caller and resets the
// builder.
func (b *Builder) Build() *String {
	b.copyCheck()
	out := wrap(b.r.root)
	b.r.root = nil
	return out
}

// Reset releases the accumulated rope.
func (b *Builder) Reset() {
	b.copyCheck()
	b.r.Release()
}

// ReadFrom implements io.ReaderFrom. Each read becomes one leaf.
func (b *Builder) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			b.write(append([]byte(nil), buf[:n]...))
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
