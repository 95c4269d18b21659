package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/picorope/internal/engine/rope"
)

// DefaultPreviewWidth is the number of grapheme clusters shown per leaf.
const DefaultPreviewWidth = 24

// InspectOptions controls Inspect output.
type InspectOptions struct {
	// JSON prints a summary object instead of the tree.
	JSON bool

	// Color highlights the JSON summary.
	Color bool

	// PreviewWidth limits leaf previews in grapheme clusters. Zero uses
	// DefaultPreviewWidth.
	PreviewWidth int
}

// Summary describes the shape of a rope. Node counts are of distinct
// nodes: a subtree shared along several paths is counted once.
type Summary struct {
	Len       int
	Depth     int
	Leaves    int
	Links     int
	Shared    int // nodes with more than one owner
	Graphemes int
	MinLeaf   int
	MaxLeaf   int
}

// Summarize walks r's distinct nodes without flattening it. Counting
// graphemes still reads the full text through Chunks.
func Summarize(r *rope.String) Summary {
	s := Summary{Len: r.Len(), Depth: r.Depth()}
	r.Walk(func(info rope.NodeInfo[byte]) bool {
		if info.Repeat {
			return true
		}
		if info.Owners > 1 {
			s.Shared++
		}
		if !info.Leaf {
			s.Links++
			return true
		}
		if s.Leaves == 0 || info.Size < s.MinLeaf {
			s.MinLeaf = info.Size
		}
		s.MaxLeaf = max(s.MaxLeaf, info.Size)
		s.Leaves++
		return true
	})

	text := make([]byte, 0, s.Len)
	for chunk := range r.Chunks() {
		text = append(text, chunk...)
	}
	s.Graphemes = uniseg.GraphemeClusterCount(string(text))
	return s
}

// JSON encodes the summary as an indented object.
func (s Summary) JSON() ([]byte, error) {
	doc := []byte(`{}`)
	fields := []struct {
		path string
		val  int
	}{
		{"len", s.Len},
		{"depth", s.Depth},
		{"nodes.leaves", s.Leaves},
		{"nodes.links", s.Links},
		{"nodes.shared", s.Shared},
		{"graphemes", s.Graphemes},
		{"leafSize.min", s.MinLeaf},
		{"leafSize.max", s.MaxLeaf},
	}
	var err error
	for _, f := range fields {
		if doc, err = sjson.SetBytes(doc, f.path, f.val); err != nil {
			return nil, err
		}
	}
	return pretty.Pretty(doc), nil
}

// Inspect writes r's tree, one node per line in pre-order, or its JSON
// summary. A shared subtree is printed in full once and marked "(repeat)"
// where it occurs again.
func Inspect(w io.Writer, r *rope.String, opts InspectOptions) error {
	if opts.JSON {
		doc, err := Summarize(r).JSON()
		if err != nil {
			return err
		}
		if opts.Color {
			doc = pretty.Color(doc, nil)
		}
		_, err = w.Write(doc)
		return err
	}

	width := opts.PreviewWidth
	if width <= 0 {
		width = DefaultPreviewWidth
	}

	var err error
	r.Walk(func(info rope.NodeInfo[byte]) bool {
		indent := strings.Repeat("  ", info.Depth)
		if info.Repeat {
			kind := "link"
			if info.Leaf {
				kind = "leaf"
			}
			_, err = fmt.Fprintf(w, "%s%s size=%d owners=%d (repeat)\n", indent, kind, info.Size, info.Owners)
			return err == nil
		}
		if info.Leaf {
			_, err = fmt.Fprintf(w, "%sleaf size=%d owners=%d %s\n",
				indent, info.Size, info.Owners, Preview(info.Units, width))
		} else {
			_, err = fmt.Fprintf(w, "%slink size=%d owners=%d\n", indent, info.Size, info.Owners)
		}
		return err == nil
	})
	return err
}

// Preview quotes the first width grapheme clusters of b, marking a cut
// with an ellipsis. Clusters are never split.
func Preview(b []byte, width int) string {
	rest := string(b)
	var sb strings.Builder
	state := -1
	for n := 0; n < width && rest != ""; n++ {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		sb.WriteString(cluster)
	}
	out := strconv.Quote(sb.String())
	if rest != "" {
		out += "…"
	}
	return out
}

// SplitRope builds a rope from data with one leaf per n bytes.
func SplitRope(data []byte, n int) (*rope.String, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSplit, n)
	}
	b := rope.NewBuilder()
	for len(data) > 0 {
		k := min(n, len(data))
		_, _ = b.Write(data[:k])
		data = data[k:]
	}
	return b.Build(), nil
}
