package lua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/picorope/internal/engine/rope"
)

// DefaultExecutionTimeout bounds a single DoString, Run or Call.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps gopher-lua with the rope module and a sandbox.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes calls made
// through State; direct use of L bypasses it.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	output           io.Writer

	sandbox *Sandbox
	bridge  *Bridge
	ropes   *ropeModule

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the deadline for each execution. Zero disables
// it; the caller's context still applies.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithOutput sends script print output to w.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		s.output = w
	}
}

// NewState creates a new sandboxed Lua state with the rope module
// preloaded.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L
	openSafeLibraries(L)

	state.ropes = newRopeModule()
	state.ropes.open(L)

	state.sandbox = NewSandbox(L, state.output)
	state.sandbox.Install()

	state.bridge = NewBridge(L, state.ropes)
	return state, nil
}

// openSafeLibraries opens only safe Lua standard libraries. io, os and
// debug are never opened; package is needed for require and preloading.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// exec runs fn under the state lock with the execution deadline attached to
// the Lua VM.
func (s *State) exec(ctx context.Context, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		if err == nil {
			return
		}
		switch ctxErr := ctx.Err(); {
		case errors.Is(ctxErr, context.DeadlineExceeded):
			err = fmt.Errorf("%w: %w", ErrExecutionTimeout, err)
		case ctxErr != nil:
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
	}()
	return fn()
}

// DoString executes a Lua chunk.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.exec(ctx, func() error {
		return s.L.DoString(code)
	})
}

// Run executes a Lua chunk and returns its result as a rope owned by the
// caller. The chunk may return a rope, a string, a number, or a list of
// those, which is joined.
func (s *State) Run(ctx context.Context, src string) (*rope.String, error) {
	var out *rope.String
	err := s.exec(ctx, func() error {
		fn, err := s.L.LoadString(src)
		if err != nil {
			return err
		}

		top := s.L.GetTop()
		defer s.L.SetTop(top)

		s.L.Push(fn)
		if err := s.L.PCall(0, 1, nil); err != nil {
			return err
		}
		out, err = s.ropes.result(s.L.Get(-1))
		return err
	})
	return out, err
}

// Call calls a global Lua function with the given arguments, converted by
// the bridge, and returns its results as Go values. Ropes come back as
// strings. Returns an empty slice (not nil) if the function returns no
// values.
func (s *State) Call(ctx context.Context, fn string, args ...any) ([]any, error) {
	var results []any
	err := s.exec(ctx, func() error {
		fnVal, ok := s.L.GetGlobal(fn).(*lua.LFunction)
		if !ok {
			return fmt.Errorf("%w: %q", ErrFunctionNotFound, fn)
		}

		var err error
		results, err = s.bridge.CallFunc(fnVal, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []any{}
	}
	return results, nil
}

// SetGlobal converts v with the bridge and stores it as a global.
func (s *State) SetGlobal(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	s.L.SetGlobal(name, s.bridge.ToLuaValue(v))
	return nil
}

// SetJSON decodes data and stores it as a global.
func (s *State) SetJSON(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	v, err := s.bridge.FromJSON(data)
	if err != nil {
		return err
	}
	s.L.SetGlobal(name, v)
	return nil
}

// LiveRopes returns the number of ropes the scripts created and have not
// released.
func (s *State) LiveRopes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ropes.liveCount()
}

// Close releases every rope still held by scripts and the Lua state.
// After Close is called, all other methods will return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.ropes.releaseAll()
	s.L.Close()
	s.closed = true
	return nil
}
