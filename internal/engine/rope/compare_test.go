package rope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareDifferentShapes(t *testing.T) {
	flat := FromString("abcdef")
	defer flat.Release()
	linked := abcdef(t)
	split := splitRope("abcdef", 1)
	defer split.Release()

	assert.True(t, flat.Equal(linked))
	assert.True(t, linked.Equal(split))
	assert.Equal(t, 0, flat.Compare(split))
	assert.True(t, flat.LessEqual(split))
	assert.True(t, flat.GreaterEqual(split))
	assert.False(t, flat.Less(split))
	assert.False(t, flat.Greater(split))
}

func TestCompareOrdering(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "a", -1},
		{"a", "", 1},
		{"ab", "abc", -1},
		{"abd", "abc", 1},
		{"B", "a", -1},
		{"\xff", "\x00", 1},
	}

	for _, tt := range tests {
		a := splitRope(tt.a, 1)
		b := splitRope(tt.b, 2)
		assert.Equal(t, tt.want, a.Compare(b), "Compare(%q, %q)", tt.a, tt.b)
		assert.Equal(t, tt.want < 0, a.Less(b))
		assert.Equal(t, tt.want <= 0, a.LessEqual(b))
		assert.Equal(t, tt.want > 0, a.Greater(b))
		assert.Equal(t, tt.want >= 0, a.GreaterEqual(b))
		assert.Equal(t, tt.want == 0, a.Equal(b))
		a.Release()
		b.Release()
	}
}

func TestCompareSelfAndNil(t *testing.T) {
	r := FromString("x")
	defer r.Release()
	assert.True(t, r.Equal(r))
	assert.Equal(t, 0, r.Compare(r))

	var none *String
	assert.True(t, none.Equal(Empty[byte]()))
	assert.Equal(t, 1, r.Compare(none))
}
