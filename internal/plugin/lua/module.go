package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/picorope/internal/engine/rope"
)

// ModuleName is the name scripts pass to require.
const ModuleName = "rope"

const ropeTypeName = "rope.String"

// releasedRope marks a userdata whose rope was released by the script.
type releasedRope struct{}

// ropeModule exposes byte ropes to Lua. Every rope handed to a script stays
// in live until the script releases it or the state closes; gopher-lua has
// no finalizers, so nothing else would drop the reference.
type ropeModule struct {
	live map[*lua.LUserData]struct{}
}

func newRopeModule() *ropeModule {
	return &ropeModule{live: make(map[*lua.LUserData]struct{})}
}

// open installs the rope metatable and preloads the module.
func (m *ropeModule) open(L *lua.LState) {
	mt := L.NewTypeMetatable(ropeTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"append":  m.append,
		"sub":     m.sub,
		"at":      m.at,
		"len":     m.length,
		"depth":   m.depth,
		"str":     m.str,
		"release": m.release,
	}))
	L.SetFuncs(mt, map[string]lua.LGFunction{
		"__len":      m.length,
		"__concat":   m.concat,
		"__tostring": m.str,
		"__eq":       m.eq,
		"__lt":       m.lt,
		"__le":       m.le,
	})

	L.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"new":   m.newRope,
			"empty": m.empty,
			"join":  m.join,
		}))
		return 1
	})
}

// wrap hands r over to a new tracked userdata.
func (m *ropeModule) wrap(L *lua.LState, r *rope.String) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = r
	L.SetMetatable(ud, L.GetTypeMetatable(ropeTypeName))
	m.live[ud] = struct{}{}
	return ud
}

func (m *ropeModule) push(L *lua.LState, r *rope.String) int {
	L.Push(m.wrap(L, r))
	return 1
}

// check returns argument n, which must be a live rope.
func (m *ropeModule) check(L *lua.LState, n int) *rope.String {
	ud := L.CheckUserData(n)
	switch r := ud.Value.(type) {
	case *rope.String:
		return r
	case releasedRope:
		L.ArgError(n, errReleasedRope.Error())
	default:
		L.ArgError(n, "rope expected")
	}
	return nil
}

// operand converts v into a rope. Strings and numbers become new ropes the
// caller must release (owned is true); ropes are borrowed.
func (m *ropeModule) operand(v lua.LValue) (r *rope.String, owned bool, err error) {
	switch v := v.(type) {
	case lua.LString:
		return rope.FromString(string(v)), true, nil
	case lua.LNumber:
		return rope.FromString(v.String()), true, nil
	case *lua.LUserData:
		switch r := v.Value.(type) {
		case *rope.String:
			return r, false, nil
		case releasedRope:
			return nil, false, errReleasedRope
		}
	}
	return nil, false, fmt.Errorf("rope or string expected, got %s", v.Type())
}

// owned returns the result of operand as a rope the caller owns.
func (m *ropeModule) owned(v lua.LValue) (*rope.String, error) {
	r, owned, err := m.operand(v)
	if err != nil {
		return nil, err
	}
	if !owned {
		r = r.Clone()
	}
	return r, nil
}

func (m *ropeModule) newRope(L *lua.LState) int {
	if L.GetTop() == 0 || L.Get(1) == lua.LNil {
		return m.push(L, rope.Empty[byte]())
	}
	r, err := m.owned(L.Get(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	return m.push(L, r)
}

func (m *ropeModule) empty(L *lua.LState) int {
	return m.push(L, rope.Empty[byte]())
}

func (m *ropeModule) join(L *lua.LState) int {
	tbl := L.CheckTable(1)
	r, err := m.joinTable(tbl, L.Get(2))
	if err != nil {
		L.RaiseError("rope.join: %s", err.Error())
	}
	return m.push(L, r)
}

// joinTable concatenates the array part of tbl with sep, which may be nil.
func (m *ropeModule) joinTable(tbl *lua.LTable, sep lua.LValue) (*rope.String, error) {
	var (
		parts []*rope.String
		temps []*rope.String
	)
	defer func() {
		for _, r := range temps {
			r.Release()
		}
	}()

	var s *rope.String
	if sep != lua.LNil {
		r, owned, err := m.operand(sep)
		if err != nil {
			return nil, fmt.Errorf("separator: %w", err)
		}
		if owned {
			temps = append(temps, r)
		}
		s = r
	}

	n := tbl.Len()
	parts = make([]*rope.String, 0, n)
	for i := 1; i <= n; i++ {
		r, owned, err := m.operand(tbl.RawGetInt(i))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if owned {
			temps = append(temps, r)
		}
		parts = append(parts, r)
	}
	return rope.Join(parts, s), nil
}

func (m *ropeModule) append(L *lua.LState) int {
	r := m.check(L, 1)
	other, owned, err := m.operand(L.CheckAny(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	out := r.Append(other)
	if owned {
		other.Release()
	}
	return m.push(L, out)
}

// concat serves the .. operator, where either side may be the rope.
func (m *ropeModule) concat(L *lua.LState) int {
	a, aOwned, err := m.operand(L.Get(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	b, bOwned, err := m.operand(L.Get(2))
	if err != nil {
		if aOwned {
			a.Release()
		}
		L.ArgError(2, err.Error())
	}
	out := a.Append(b)
	if aOwned {
		a.Release()
	}
	if bOwned {
		b.Release()
	}
	return m.push(L, out)
}

func (m *ropeModule) sub(L *lua.LState) int {
	r := m.check(L, 1)
	i := L.CheckInt(2)
	n := L.OptInt(3, r.Len()-i+1)
	out, err := r.Substr(i-1, n)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	return m.push(L, out)
}

func (m *ropeModule) at(L *lua.LState) int {
	r := m.check(L, 1)
	c, err := r.At(L.CheckInt(2) - 1)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LString([]byte{c}))
	return 1
}

func (m *ropeModule) length(L *lua.LState) int {
	L.Push(lua.LNumber(m.check(L, 1).Len()))
	return 1
}

func (m *ropeModule) depth(L *lua.LState) int {
	L.Push(lua.LNumber(m.check(L, 1).Depth()))
	return 1
}

func (m *ropeModule) str(L *lua.LState) int {
	L.Push(lua.LString(m.check(L, 1).String()))
	return 1
}

// release drops the script's reference. Releasing twice is allowed.
func (m *ropeModule) release(L *lua.LState) int {
	ud := L.CheckUserData(1)
	if r, ok := ud.Value.(*rope.String); ok {
		r.Release()
		ud.Value = releasedRope{}
		delete(m.live, ud)
	}
	return 0
}

func (m *ropeModule) eq(L *lua.LState) int {
	L.Push(lua.LBool(m.check(L, 1).Equal(m.check(L, 2))))
	return 1
}

func (m *ropeModule) lt(L *lua.LState) int {
	L.Push(lua.LBool(m.check(L, 1).Less(m.check(L, 2))))
	return 1
}

func (m *ropeModule) le(L *lua.LState) int {
	L.Push(lua.LBool(m.check(L, 1).LessEqual(m.check(L, 2))))
	return 1
}

// result converts a chunk's return value into a rope the caller owns. A
// table is joined as a list of parts.
func (m *ropeModule) result(v lua.LValue) (*rope.String, error) {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil, ErrNoResult
	case *lua.LTable:
		return m.joinTable(v, lua.LNil)
	}
	r, err := m.owned(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoResult, err)
	}
	return r, nil
}

// liveCount returns the number of ropes the script still holds.
func (m *ropeModule) liveCount() int {
	return len(m.live)
}

// releaseAll releases every rope the script still holds.
func (m *ropeModule) releaseAll() int {
	n := len(m.live)
	for ud := range m.live {
		if r, ok := ud.Value.(*rope.String); ok {
			r.Release()
		}
		ud.Value = releasedRope{}
	}
	clear(m.live)
	return n
}
