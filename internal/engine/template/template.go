// Package template renders text templates against JSON data.
//
// A template is compiled once into a rope holding its source and a list of
// segments. Rendering never copies literal text: each literal segment is a
// zero-copy substring of the source rope, and the output is assembled with
// O(1) appends, so large templates with many loop iterations stay linear.
//
// Syntax:
//
//	{{ path }}                 value at the gjson path
//	{{ range path }}...{{ end }} body once per array element or object value
//	{{ . }}                    the current element inside a range
//
// Paths are gjson paths (https://github.com/tidwall/gjson) resolved against
// the current element.
package template

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/picorope/internal/engine/rope"
)

type segmentKind uint8

const (
	segText segmentKind = iota
	segValue
	segRange
)

type segment struct {
	kind   segmentKind
	pos, n int       // source window for segText
	path   string    // segValue, segRange
	offset int       // source offset of the action
	body   []segment // segRange
}

// Template is a compiled template. It owns a rope and must be released.
type Template struct {
	src  *rope.String
	segs []segment
	opts options
}

// Compile parses src.
func Compile(src string, opts ...Option) (*Template, error) {
	o := options{left: DefaultLeftDelim, right: DefaultRightDelim}
	for _, opt := range opts {
		opt(&o)
	}

	segs, err := parse(src, o.left, o.right)
	if err != nil {
		return nil, err
	}
	return &Template{src: rope.FromString(src), segs: segs, opts: o}, nil
}

// parse splits src into segments. Open ranges wait on an explicit stack.
func parse(src, left, right string) ([]segment, error) {
	type open struct {
		seg   segment
		outer []segment
	}
	var (
		stack []open
		cur   []segment
		pos   int
	)

	for pos < len(src) {
		i := strings.Index(src[pos:], left)
		if i < 0 {
			cur = append(cur, segment{kind: segText, pos: pos, n: len(src) - pos})
			break
		}
		if i > 0 {
			cur = append(cur, segment{kind: segText, pos: pos, n: i})
		}

		start := pos + i
		inner := start + len(left)
		j := strings.Index(src[inner:], right)
		if j < 0 {
			return nil, fmt.Errorf("%w at offset %d", ErrUnclosedAction, start)
		}
		action := strings.TrimSpace(src[inner : inner+j])
		pos = inner + j + len(right)

		switch {
		case action == "":
			return nil, fmt.Errorf("%w at offset %d", ErrEmptyAction, start)
		case action == "end":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w at offset %d", ErrUnexpectedEnd, start)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top.seg.body = cur
			cur = append(top.outer, top.seg)
		case action == "range" || strings.HasPrefix(action, "range "):
			path := strings.TrimSpace(strings.TrimPrefix(action, "range"))
			if path == "" {
				return nil, fmt.Errorf("%w at offset %d", ErrEmptyAction, start)
			}
			stack = append(stack, open{
				seg:   segment{kind: segRange, path: path, offset: start},
				outer: cur,
			})
			cur = nil
		default:
			cur = append(cur, segment{kind: segValue, path: action, offset: start})
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w at offset %d", ErrUnclosedRange, stack[len(stack)-1].seg.offset)
	}
	return cur, nil
}

// Render executes the template against JSON data. The caller owns the
// returned rope.
func (t *Template) Render(data []byte) (*rope.String, error) {
	if t.src == nil {
		return nil, ErrReleased
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidData
	}

	var b rope.Builder
	if err := t.render(&b, t.segs, gjson.ParseBytes(data)); err != nil {
		b.Reset()
		return nil, err
	}
	return b.Build(), nil
}

func (t *Template) render(b *rope.Builder, segs []segment, ctx gjson.Result) error {
	for _, seg := range segs {
		switch seg.kind {
		case segText:
			lit, err := t.src.Substr(seg.pos, seg.n)
			if err != nil {
				return err
			}
			b.WriteRope(lit)
			lit.Release()

		case segValue:
			v, ok, err := t.lookup(ctx, seg)
			if err != nil {
				return err
			}
			if ok {
				_, _ = b.WriteString(text(v))
			}

		case segRange:
			v, ok, err := t.lookup(ctx, seg)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if !v.IsArray() && !v.IsObject() {
				return fmt.Errorf("%w: %q at offset %d", ErrNotIterable, seg.path, seg.offset)
			}
			var iterErr error
			v.ForEach(func(_, elem gjson.Result) bool {
				iterErr = t.render(b, seg.body, elem)
				return iterErr == nil
			})
			if iterErr != nil {
				return iterErr
			}
		}
	}
	return nil
}

// lookup resolves seg's path against ctx. ok is false for a missing value
// under MissingEmpty.
func (t *Template) lookup(ctx gjson.Result, seg segment) (gjson.Result, bool, error) {
	v := ctx
	if seg.path != "." {
		v = ctx.Get(seg.path)
	}
	if v.Exists() {
		return v, true, nil
	}
	if t.opts.missing == MissingError {
		return v, false, fmt.Errorf("%w: %q at offset %d", ErrMissingValue, seg.path, seg.offset)
	}
	return v, false, nil
}

// text renders a JSON value: strings unquoted, null as nothing, everything
// else as its JSON text.
func text(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}

// Source returns the template text.
func (t *Template) Source() *rope.String {
	return t.src.Clone()
}

// Release frees the template's rope. Render fails afterwards.
func (t *Template) Release() {
	if t.src != nil {
		t.src.Release()
		t.src = nil
	}
}
