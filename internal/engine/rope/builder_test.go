package rope

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderWrites(t *testing.T) {
	var b Builder
	_, _ = b.WriteString("hello")
	require.NoError(t, b.WriteByte(','))
	_, _ = b.Write([]byte(" wor"))
	_, _ = b.WriteRune('ł')
	_, _ = b.WriteString("")
	_, _ = fmt.Fprintf(&b, "d %d", 42)

	assert.Equal(t, len("hello, worłd 42"), b.Len())
	r := b.Build()
	defer r.Release()
	assert.Equal(t, "hello, worłd 42", r.String())
	assert.Equal(t, 0, b.Len(), "Build resets the builder")
}

func TestBuilderWriteCopiesInput(t *testing.T) {
	b := NewBuilder()
	p := []byte("abc")
	_, _ = b.Write(p)
	p[0] = 'X'
	r := b.Build()
	defer r.Release()
	assert.Equal(t, "abc", r.String())
}

func TestBuilderAppendsWithoutCopying(t *testing.T) {
	b := NewBuilder()
	defer b.Reset()
	before := ReadStats()
	for i := 0; i < 100; i++ {
		_, _ = b.WriteString("ab")
	}
	delta := ReadStats().Sub(before)
	assert.Equal(t, uint64(100), delta.LeavesAllocated)
	assert.Equal(t, uint64(99), delta.LinksAllocated)
	assert.Equal(t, uint64(0), delta.Flattens)
	assert.Equal(t, uint64(0), delta.LinksFreed)
}

func TestBuilderRopeSnapshot(t *testing.T) {
	b := NewBuilder()
	_, _ = b.WriteString("one")
	snap := b.Rope()
	defer snap.Release()
	_, _ = b.WriteString("two")

	assert.Equal(t, "one", snap.String())
	r := b.Build()
	defer r.Release()
	assert.Equal(t, "onetwo", r.String())
}

func TestBuilderWriteRope(t *testing.T) {
	part := FromString("[part]")
	defer part.Release()

	var b Builder
	b.WriteRope(part)
	b.WriteRope(Empty[byte]())
	b.WriteRope(part)
	r := b.Build()
	defer r.Release()
	assert.Equal(t, "[part][part]", r.String())
	assert.Equal(t, "[part]", part.String())
}

func TestBuilderReset(t *testing.T) {
	before := ReadStats()
	var b Builder
	_, _ = b.WriteString("a")
	_, _ = b.WriteString("b")
	b.Reset()
	assert.Equal(t, 0, b.Len())
	requireAllFreed(t, before)

	_, _ = b.WriteString("c")
	r := b.Build()
	defer r.Release()
	assert.Equal(t, "c", r.String())
}

func TestBuilderBuildEmpty(t *testing.T) {
	var b Builder
	r := b.Build()
	defer r.Release()
	assert.True(t, r.IsEmpty())
}

func TestBuilderReadFrom(t *testing.T) {
	text := strings.Repeat("0123456789", 10_000)
	var b Builder
	n, err := b.ReadFrom(io.LimitReader(strings.NewReader(text), int64(len(text))))
	require.NoError(t, err)
	assert.Equal(t, int64(len(text)), n)
	r := b.Build()
	defer r.Release()
	assert.Equal(t, text, r.String())
}

func TestBuilderCopyPanics(t *testing.T) {
	var b Builder
	_, _ = b.WriteString("x")
	defer b.Reset()
	copied := b
	assert.Panics(t, func() { _, _ = copied.WriteString("y") })
}
