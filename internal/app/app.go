package app

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"

	"github.com/dshills/picorope/internal/config"
	"github.com/dshills/picorope/internal/config/watcher"
	"github.com/dshills/picorope/internal/engine/rope"
	"github.com/dshills/picorope/internal/engine/template"
)

// DefaultWatchDebounce coalesces editor save bursts in Watch.
const DefaultWatchDebounce = 100 * time.Millisecond

// App carries the configuration, logger and metrics shared by the
// commands.
type App struct {
	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
	logSet    bool
	metrics   *Metrics
	runID     string

	stderr       io.Writer
	scriptOutput io.Writer
	debounce     time.Duration

	mu     sync.Mutex
	closed bool
}

// Option configures an App.
type Option func(*App)

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *App) {
		a.log = logger
		a.logSet = true
	}
}

// WithStderr sets where diagnostics go. Defaults to os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(a *App) {
		a.stderr = w
	}
}

// WithScriptOutput sets where Lua print writes. Defaults to the stderr
// writer.
func WithScriptOutput(w io.Writer) Option {
	return func(a *App) {
		a.scriptOutput = w
	}
}

// WithWatchDebounce sets the debounce delay used by Watch.
func WithWatchDebounce(d time.Duration) Option {
	return func(a *App) {
		a.debounce = d
	}
}

// New creates an App for cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{
		cfg:       cfg,
		logCloser: nopCloser{},
		metrics:   NewMetrics(),
		runID:     uuid.NewString(),
		stderr:    os.Stderr,
		debounce:  DefaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scriptOutput == nil {
		a.scriptOutput = a.stderr
	}

	if !a.logSet {
		logger, closer, err := NewLogger(cfg.Log, a.stderr)
		if err != nil {
			return nil, err
		}
		a.log, a.logCloser = logger, closer
	}
	a.log = a.log.With().Str("run_id", a.runID).Logger()

	for _, key := range cfg.Unknown {
		a.log.Warn().Str("key", key).Msg("unknown setting")
	}
	return a, nil
}

// Config returns the configuration the App was created with.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the App logger.
func (a *App) Logger() zerolog.Logger { return a.log }

// Metrics returns the App metrics.
func (a *App) Metrics() *Metrics { return a.metrics }

// RunID identifies this App in log events.
func (a *App) RunID() string { return a.runID }

// Close flushes and closes the log file, if any.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.logCloser.Close()
}

func (a *App) checkOpen() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return nil
}

// track logs and records one operation.
func (a *App) track(op, target string, start time.Time, out *rope.String, err error) {
	d := time.Since(start)
	a.metrics.Record(op, d, err)

	ev := a.log.Debug()
	if err != nil {
		ev = a.log.Error().Err(err)
	}
	ev = ev.Str("op", op).Dur("elapsed", d)
	if target != "" {
		ev = ev.Str("file", target)
	}
	// Depth walks the tree, so only pay for it when the event is logged
	if out != nil && ev.Enabled() {
		ev = ev.Int("bytes", out.Len()).Int("depth", out.Depth())
	}
	ev.Msg(op)
}

// readOptional reads path, treating an empty path as no data.
func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// Render compiles the template at tmplPath with the configured options and
// renders it against the JSON document at dataPath. An empty dataPath
// renders against an empty object. The caller owns the result.
func (a *App) Render(ctx context.Context, tmplPath, dataPath string) (out *rope.String, err error) {
	start := time.Now()
	defer func() { a.track("render", tmplPath, start, out, err) }()

	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := os.ReadFile(tmplPath)
	if err != nil {
		return nil, opError("render", tmplPath, err)
	}
	data, err := readOptional(dataPath)
	if err != nil {
		return nil, opError("render", dataPath, err)
	}

	opts, err := a.cfg.Template.Options()
	if err != nil {
		return nil, opError("render", tmplPath, err)
	}
	tmpl, err := template.Compile(string(src), opts...)
	if err != nil {
		return nil, opError("render", tmplPath, err)
	}
	defer tmpl.Release()

	out, err = tmpl.Render(data)
	if err != nil {
		return nil, opError("render", tmplPath, err)
	}
	return out, nil
}

// Wrap stores r as a JSON string under key (an sjson path) in a new object.
func Wrap(key string, r *rope.String) ([]byte, error) {
	return sjson.SetBytes([]byte(`{}`), key, r.String())
}

// InspectFile builds a rope from path with one leaf per split bytes and
// writes its tree or summary to w.
func (a *App) InspectFile(path string, split int, w io.Writer, opts InspectOptions) (err error) {
	start := time.Now()
	defer func() { a.track("inspect", path, start, nil, err) }()

	if err := a.checkOpen(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opError("inspect", path, err)
	}
	r, err := SplitRope(data, split)
	if err != nil {
		return opError("inspect", path, err)
	}
	defer r.Release()

	return Inspect(w, r, opts)
}

// BenchResult holds the timings of one Bench run.
type BenchResult struct {
	N           int
	Depth       int
	Append      time.Duration // building the chain
	Materialize time.Duration // first Substr, which flattens
	Substr      time.Duration // second Substr, a window of the now flat source
	Release     time.Duration // freeing everything
	Stats       rope.Stats    // node accounting during the run
}

// Leaked returns the nodes allocated during the run and never freed.
func (r BenchResult) Leaked() uint64 {
	return r.Stats.Allocated() - r.Stats.LeavesFreed - r.Stats.LinksFreed
}

// Bench appends n one-byte leaves, materializes the chain through Substr,
// and releases everything, timing each phase.
func (a *App) Bench(ctx context.Context, n int) (res BenchResult, err error) {
	start := time.Now()
	defer func() { a.track("bench", "", start, nil, err) }()

	if err := a.checkOpen(); err != nil {
		return res, err
	}
	if n <= 0 {
		n = a.cfg.Bench.N
	}
	res.N = n
	before := rope.ReadStats()

	t := time.Now()
	r := rope.Empty[byte]()
	for i := 0; i < n; i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				r.Release()
				return res, err
			}
		}
		next := r.AppendUnits([]byte{byte('a' + i%26)})
		r.Release()
		r = next
	}
	res.Append = time.Since(t)
	res.Depth = r.Depth()

	t = time.Now()
	half, err := r.Substr(n/4, n/2)
	if err != nil {
		r.Release()
		return res, err
	}
	res.Materialize = time.Since(t)

	t = time.Now()
	quarter, err := r.Substr(n/2, n/4)
	if err != nil {
		half.Release()
		r.Release()
		return res, err
	}
	res.Substr = time.Since(t)

	t = time.Now()
	quarter.Release()
	half.Release()
	r.Release()
	res.Release = time.Since(t)

	res.Stats = rope.ReadStats().Sub(before)
	a.log.Info().
		Int("n", n).
		Int("depth", res.Depth).
		Dur("append", res.Append).
		Dur("materialize", res.Materialize).
		Dur("release", res.Release).
		Uint64("units_copied", res.Stats.UnitsCopied).
		Msg("bench")
	return res, nil
}

// Watch calls fn each time one of paths changes until ctx is done. Bursts
// of changes are debounced into one call. Errors from fn are logged and
// watching continues.
func (a *App) Watch(ctx context.Context, paths []string, fn func() error) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	if len(paths) == 0 {
		return ErrNoWatchPaths
	}

	w, err := watcher.New(watcher.WithDebounce(a.debounce))
	if err != nil {
		return err
	}
	defer w.Stop()

	for _, p := range paths {
		if err := w.Watch(p); err != nil {
			return opError("watch", p, err)
		}
	}

	changed := make(chan watcher.Event, 1)
	w.OnChange(func(ev watcher.Event) {
		select {
		case changed <- ev:
		default:
		}
	})
	w.OnError(func(err error) {
		a.log.Warn().Err(err).Msg("watch error")
	})
	w.Start()
	a.log.Info().Strs("files", w.WatchedFiles()).Msg("watching")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-changed:
			a.log.Debug().Str("file", ev.Path).Stringer("op", ev.Op).Msg("changed")
			if err := fn(); err != nil {
				a.log.Error().Err(err).Msg("rerun failed")
			}
		}
	}
}
