package lua

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/picorope/internal/engine/rope"
)

func newTestBridge(t *testing.T) (*Bridge, *ropeModule) {
	t.Helper()
	L := glua.NewState()
	t.Cleanup(L.Close)
	ropes := newRopeModule()
	ropes.open(L)
	t.Cleanup(func() { ropes.releaseAll() })
	return NewBridge(L, ropes), ropes
}

func TestBridgeToGoValue(t *testing.T) {
	bridge, _ := newTestBridge(t)

	tests := []struct {
		name     string
		input    glua.LValue
		expected any
	}{
		{"nil", glua.LNil, nil},
		{"true", glua.LTrue, true},
		{"false", glua.LFalse, false},
		{"integer", glua.LNumber(42), int64(42)},
		{"float", glua.LNumber(3.14), 3.14},
		{"string", glua.LString("hello"), "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, bridge.ToGoValue(tt.input))
		})
	}
}

func TestBridgeToGoValueTable(t *testing.T) {
	bridge, _ := newTestBridge(t)
	L := bridge.L

	t.Run("array", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetInt(1, glua.LString("a"))
		tbl.RawSetInt(2, glua.LString("b"))

		assert.Equal(t, []any{"a", "b"}, bridge.ToGoValue(tbl))
	})

	t.Run("sparse array is a map", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetInt(1, glua.LString("a"))
		tbl.RawSetInt(3, glua.LString("c"))

		assert.IsType(t, map[string]any{}, bridge.ToGoValue(tbl))
	})

	t.Run("map", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetString("name", glua.LString("ada"))
		tbl.RawSetString("n", glua.LNumber(1))

		assert.Equal(t, map[string]any{"name": "ada", "n": int64(1)}, bridge.ToGoValue(tbl))
	})

	t.Run("cycle", func(t *testing.T) {
		tbl := L.NewTable()
		tbl.RawSetString("self", tbl)

		assert.Equal(t, map[string]any{"self": nil}, bridge.ToGoValue(tbl))
	})
}

func TestBridgeRopeValues(t *testing.T) {
	bridge, ropes := newTestBridge(t)

	r := rope.FromString("shared")
	defer r.Release()

	lv := bridge.ToLuaValue(r)
	assert.Equal(t, 1, ropes.liveCount())
	assert.Equal(t, "shared", bridge.ToGoValue(lv))

	// The Lua side holds its own reference
	ropes.releaseAll()
	assert.Equal(t, "shared", r.String())
}

func TestBridgeToLuaValue(t *testing.T) {
	bridge, _ := newTestBridge(t)

	type point struct {
		X       int `json:"x"`
		Y       int `json:"y,omitempty"`
		Label   string
		private int
	}

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", 7, int64(7)},
		{"uint8", uint8(8), int64(8)},
		{"float32", float32(0.5), 0.5},
		{"string", "s", "s"},
		{"bytes", []byte("b"), "b"},
		{"any slice", []any{"a", 1}, []any{"a", int64(1)}},
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"map", map[string]any{"k": "v"}, map[string]any{"k": "v"}},
		{"int map", map[string]int{"k": 1}, map[string]any{"k": int64(1)}},
		{"struct", point{X: 1, Y: 2, Label: "p"}, map[string]any{"x": int64(1), "y": int64(2), "Label": "p"}},
		{"pointer", &point{X: 3}, map[string]any{"x": int64(3), "y": int64(0), "Label": ""}},
		{"nil pointer", (*point)(nil), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bridge.ToGoValue(bridge.ToLuaValue(tt.input)))
		})
	}

	assert.Equal(t, glua.LString("raw"), bridge.ToLuaValue(glua.LString("raw")), "LValue passes through")
}

func TestBridgeFromJSON(t *testing.T) {
	bridge, _ := newTestBridge(t)

	lv, err := bridge.FromJSON([]byte(`{"s":"x","n":1.5,"t":true,"f":false,"z":null,"a":[1,{"b":"c"}]}`))
	require.NoError(t, err)

	want := map[string]any{
		"s": "x",
		"n": 1.5,
		"t": true,
		"f": false,
		"a": []any{int64(1), map[string]any{"b": "c"}},
	}
	assert.Equal(t, want, bridge.ToGoValue(lv))

	lv, err = bridge.FromJSON(nil)
	require.NoError(t, err)
	assert.IsType(t, &glua.LTable{}, lv)

	_, err = bridge.FromJSON([]byte(`[1,`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestBridgeCallFunc(t *testing.T) {
	bridge, _ := newTestBridge(t)
	L := bridge.L

	require.NoError(t, L.DoString(`function greet(name, n) return "hi " .. name, n * 2 end`))
	fn := L.GetGlobal("greet").(*glua.LFunction)

	top := L.GetTop()
	results, err := bridge.CallFunc(fn, "ada", 21)
	require.NoError(t, err)
	assert.Equal(t, []any{"hi ada", int64(42)}, results)
	assert.Equal(t, top, L.GetTop(), "stack is balanced")

	require.NoError(t, L.DoString(`function fail() error("nope") end`))
	_, err = bridge.CallFunc(L.GetGlobal("fail").(*glua.LFunction))
	assert.Error(t, err)
}
