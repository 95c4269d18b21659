package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/picorope/internal/config"
	"github.com/dshills/picorope/internal/engine/rope"
	"github.com/dshills/picorope/internal/engine/template"
)

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	opts = append([]Option{WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel))}, opts...)
	a, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, &logs
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.Unknown = []string{"log.colour"}

	a, logs := newTestApp(t, cfg)

	assert.Len(t, a.RunID(), 36)
	assert.Same(t, cfg, a.Config())
	assert.NotNil(t, a.Metrics())

	line := gjson.Get(logs.String(), "..0")
	assert.Equal(t, "unknown setting", line.Get("message").String())
	assert.Equal(t, "log.colour", line.Get("key").String())
	assert.Equal(t, a.RunID(), line.Get("run_id").String())
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	a, _ := newTestApp(t, nil)
	assert.Equal(t, config.Default().Bench, a.Config().Bench)
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "page.tmpl", "Hello {{name}}!{{range xs}} {{.}}{{end}}")
	data := writeFile(t, dir, "data.json", `{"name":"ada","xs":[1,2]}`)

	a, _ := newTestApp(t, nil)

	out, err := a.Render(context.Background(), tmpl, data)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, "Hello ada! 1 2", out.String())

	var metrics bytes.Buffer
	require.NoError(t, a.Metrics().WriteMetrics(&metrics))
	assert.Contains(t, metrics.String(), `picorope_operations_total{op="render",result="ok"} 1`)
}

func TestRender_WithoutData(t *testing.T) {
	tmpl := writeFile(t, t.TempDir(), "page.tmpl", "[{{name}}]")
	a, _ := newTestApp(t, nil)

	out, err := a.Render(context.Background(), tmpl, "")
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, "[]", out.String())
}

func TestRender_ConfiguredOptions(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "page.tmpl", "<<missing>>")

	cfg := config.Default()
	cfg.Template.LeftDelim = "<<"
	cfg.Template.RightDelim = ">>"
	cfg.Template.MissingKey = "error"
	a, logs := newTestApp(t, cfg)

	_, err := a.Render(context.Background(), tmpl, "")
	require.ErrorIs(t, err, template.ErrMissingValue)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "render", opErr.Op)
	assert.Equal(t, tmpl, opErr.Target)
	assert.Contains(t, logs.String(), `"level":"error"`)
}

func TestRender_MissingFile(t *testing.T) {
	a, _ := newTestApp(t, nil)

	_, err := a.Render(context.Background(), filepath.Join(t.TempDir(), "absent.tmpl"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrap(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "page.tmpl", `say "{{w}}"`)
	data := writeFile(t, dir, "data.json", `{"w":"hi"}`)
	a, _ := newTestApp(t, nil)

	out, err := a.Render(context.Background(), tmpl, data)
	require.NoError(t, err)
	defer out.Release()

	doc, err := Wrap("page.body", out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":{"body":"say \"hi\""}}`, string(doc))
}

func TestInspectFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "text.txt", "abcdefghij")
	a, _ := newTestApp(t, nil)

	var tree bytes.Buffer
	require.NoError(t, a.InspectFile(path, 4, &tree, InspectOptions{}))
	assert.True(t, strings.HasPrefix(tree.String(), "link size=10 owners=1\n"), tree.String())

	var doc bytes.Buffer
	require.NoError(t, a.InspectFile(path, 4, &doc, InspectOptions{JSON: true}))
	assert.Equal(t, int64(3), gjson.GetBytes(doc.Bytes(), "nodes.leaves").Int())

	err := a.InspectFile(path, 0, &doc, InspectOptions{})
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestBench(t *testing.T) {
	a, logs := newTestApp(t, nil)

	res, err := a.Bench(context.Background(), 1000)
	require.NoError(t, err)

	assert.Equal(t, 1000, res.N)
	assert.Equal(t, 1000, res.Depth)
	assert.Equal(t, uint64(1000), res.Stats.UnitsCopied, "only the chain is copied")
	assert.Equal(t, uint64(1), res.Stats.Flattens)
	assert.Zero(t, res.Leaked())
	assert.Contains(t, logs.String(), `"message":"bench"`)
}

func TestBench_DefaultSize(t *testing.T) {
	cfg := config.Default()
	cfg.Bench.N = 10
	a, _ := newTestApp(t, cfg)

	res, err := a.Bench(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, res.N)
}

func TestBench_Canceled(t *testing.T) {
	a, _ := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := a.Bench(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Leaked())
}

func TestTrack(t *testing.T) {
	r := rope.FromString("abc")
	defer r.Release()

	t.Run("debug", func(t *testing.T) {
		a, logs := newTestApp(t, nil)
		a.track("render", "a.tmpl", time.Now(), r, nil)

		line := gjson.Get(logs.String(), "..0")
		assert.Equal(t, int64(3), line.Get("bytes").Int())
		assert.Equal(t, int64(1), line.Get("depth").Int())
	})

	t.Run("disabled event leaves the rope alone", func(t *testing.T) {
		var logs bytes.Buffer
		a, _ := newTestApp(t, nil, WithLogger(zerolog.New(&logs).Level(zerolog.InfoLevel)))

		// Any method call on a copied handle panics, so a call here
		// would show up
		copied := *r
		assert.NotPanics(t, func() {
			a.track("render", "a.tmpl", time.Now(), &copied, nil)
		})
		assert.Empty(t, logs.String())
	})
}

func TestClosedApp(t *testing.T) {
	a, _ := newTestApp(t, nil)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	ctx := context.Background()
	_, err := a.Render(ctx, "x", "")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = a.RunScript(ctx, "x", ScriptOptions{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = a.Bench(ctx, 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, a.InspectFile("x", 1, &bytes.Buffer{}, InspectOptions{}), ErrClosed)
	assert.ErrorIs(t, a.Watch(ctx, []string{"x"}, nil), ErrClosed)
}

func TestWatch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "page.tmpl", "v1")
	a, _ := newTestApp(t, nil, WithWatchDebounce(20*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, []string{path}, func() error {
			runs.Add(1)
			cancel()
			return errors.New("reported, not fatal")
		})
	}()

	// Keep writing until the watcher has picked a change up
	for i := 0; runs.Load() == 0 && ctx.Err() == nil; i++ {
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	}

	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestWatch_NoPaths(t *testing.T) {
	a, _ := newTestApp(t, nil)
	assert.ErrorIs(t, a.Watch(context.Background(), nil, nil), ErrNoWatchPaths)
}

func TestOperationError(t *testing.T) {
	inner := errors.New("inner")
	err := opError("render", "a.tmpl", inner)

	assert.Equal(t, "render a.tmpl: inner", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.NoError(t, opError("render", "a.tmpl", nil))
	assert.Equal(t, "bench", (&OperationError{Op: "bench"}).Error())
}
