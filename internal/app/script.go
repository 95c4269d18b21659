package app

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/picorope/internal/engine/rope"
	"github.com/dshills/picorope/internal/plugin/lua"
)

// ScriptOptions controls RunScript.
type ScriptOptions struct {
	// DataPath names a JSON file exposed to the script as the global data.
	DataPath string

	// Globals are set before the script runs.
	Globals map[string]any

	// Call names a global function to call once the chunk has run. Its
	// return values, not the chunk's, become the output.
	Call string

	// Args are passed to Call.
	Args []any
}

// scriptInfo is exposed to every script as the global script.
type scriptInfo struct {
	Path  string `json:"path"`
	RunID string `json:"run_id"`
}

// RunScript runs the Lua generator at path. The caller owns the result.
func (a *App) RunScript(ctx context.Context, path string, opts ScriptOptions) (out *rope.String, err error) {
	start := time.Now()
	defer func() { a.track("script", path, start, out, err) }()

	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if opts.Call == "" && len(opts.Args) > 0 {
		return nil, opError("script", path, ErrArgsWithoutCall)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, opError("script", path, err)
	}
	data, err := readOptional(opts.DataPath)
	if err != nil {
		return nil, opError("script", opts.DataPath, err)
	}

	state, err := lua.NewState(
		lua.WithExecutionTimeout(a.cfg.Script.Timeout),
		lua.WithOutput(a.scriptOutput),
	)
	if err != nil {
		return nil, opError("script", path, err)
	}
	defer state.Close()

	if data != nil {
		if err := state.SetJSON("data", data); err != nil {
			return nil, opError("script", opts.DataPath, err)
		}
	}
	if err := state.SetGlobal("script", scriptInfo{Path: path, RunID: a.runID}); err != nil {
		return nil, opError("script", path, err)
	}
	for _, name := range slices.Sorted(maps.Keys(opts.Globals)) {
		if err := state.SetGlobal(name, opts.Globals[name]); err != nil {
			return nil, opError("script", path, err)
		}
	}

	if opts.Call == "" {
		out, err = state.Run(ctx, string(src))
	} else {
		out, err = callScript(ctx, state, string(src), opts)
	}
	if err != nil {
		return nil, opError("script", path, err)
	}
	a.log.Debug().Int("live_ropes", state.LiveRopes()).Msg("script finished")
	return out, nil
}

// callScript runs src for its definitions, then calls opts.Call.
func callScript(ctx context.Context, state *lua.State, src string, opts ScriptOptions) (*rope.String, error) {
	if err := state.DoString(ctx, src); err != nil {
		return nil, err
	}
	results, err := state.Call(ctx, opts.Call, opts.Args...)
	if err != nil {
		return nil, err
	}
	return joinResults(results)
}

// joinResults concatenates the values a Lua function returned. Lists are
// joined in order and nil values are skipped.
func joinResults(values []any) (*rope.String, error) {
	if len(values) == 0 {
		return nil, lua.ErrNoResult
	}

	var b rope.Builder
	var write func(v any) error
	write = func(v any) error {
		switch v := v.(type) {
		case nil:
		case string:
			_, _ = b.WriteString(v)
		case bool:
			_, _ = b.WriteString(strconv.FormatBool(v))
		case int64:
			_, _ = b.WriteString(strconv.FormatInt(v, 10))
		case float64:
			_, _ = b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case []any:
			for _, e := range v {
				if err := write(e); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%w: %T", ErrScriptResult, v)
		}
		return nil
	}

	for _, v := range values {
		if err := write(v); err != nil {
			b.Reset()
			return nil, err
		}
	}
	return b.Build(), nil
}

// ParseValue reads s as JSON when it is a JSON value and as a plain string
// otherwise, so "42" is a number and "hello" a string.
func ParseValue(s string) any {
	if gjson.Valid(s) {
		return gjson.Parse(s).Value()
	}
	return s
}

// ParseSetting splits name=value and parses the value with ParseValue.
func ParseSetting(s string) (string, any, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSetting, s)
	}
	return name, ParseValue(value), nil
}
