// Package lua runs sandboxed Lua scripts that build text with ropes.
//
// Scripts load the rope module and assemble output with O(1) appends:
//
//	local rope = require("rope")
//	local out = rope.empty()
//	for i, name in ipairs(data.names) do
//	    out = out .. name .. "\n"
//	end
//	return out
//
// # State
//
// A State owns a gopher-lua runtime with only the base, table, string and
// math libraries. dofile, loadfile and load are removed and require only
// resolves built-in and preloaded modules:
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(5 * time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	out, err := state.Run(ctx, src)
//
// Run converts the chunk's return value into a rope owned by the caller.
// Every rope created inside the script is tracked and released when the
// state is closed, whether or not the script released it.
//
// # Rope module
//
// Functions: rope.new(s), rope.empty(), rope.join(list [, sep]).
//
// Methods: r:append(x), r:sub(i [, n]), r:at(i), r:len(), r:depth(),
// r:str(), r:release(). Positions are 1-based like Lua strings.
//
// Operators: #r, r .. x, tostring(r), ==, <, <=. Strings and numbers are
// accepted wherever a rope operand is.
//
// # Bridge
//
// The Bridge converts Go and JSON values into Lua values and back, which is
// how scripts receive their data global.
package lua
