package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerEngineAPI installs the engine.* table into L. Scripts reach back
// into the running game through it; the Go side is supplied by the
// Manager's injected callbacks.
//
// Precondition: L must be a sandboxed state owned by this Manager.
// Postcondition: The engine global is defined in L.
func (m *Manager) registerEngineAPI(L *lua.LState) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"log":   m.luaLog,
		"roll":  m.luaRoll,
		"get":   m.luaGet,
		"apply": m.luaApply,
	})
	L.SetGlobal("engine", engine)
}

// engine.log(message) writes a debug line tagged as script output.
func (m *Manager) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	m.logger.Debug("script", zap.String("message", msg))
	return 0
}

// engine.roll(expr) evaluates a dice expression and returns its total.
// Raises a Lua error on a malformed expression.
func (m *Manager) luaRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	if m.Roll == nil {
		L.RaiseError("engine.roll is not available")
		return 0
	}
	total, err := m.Roll(expr)
	if err != nil {
		L.RaiseError("engine.roll: %s", err)
		return 0
	}
	L.Push(lua.LNumber(total))
	return 1
}

// engine.get(ref) returns the entity snapshot for a "kind:id" reference,
// or nil when no such entity exists.
func (m *Manager) luaGet(L *lua.LState) int {
	ref := L.CheckString(1)
	if m.GetEntity == nil {
		L.RaiseError("engine.get is not available")
		return 0
	}
	view, ok := m.GetEntity(ref)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(view.Kind))
	t.RawSetString("id", lua.LString(view.ID))
	t.RawSetString("name", lua.LString(view.Name))
	t.RawSetString("props", goToLua(L, view.Props))
	L.Push(t)
	return 1
}

// engine.apply(ref, verb, actor, changes) routes property changes through
// the mutation gateway and returns {allowed=..., message=...}. Each change
// is a table {op=..., path={...}, value=...}.
func (m *Manager) luaApply(L *lua.LState) int {
	ref := L.CheckString(1)
	verb := L.CheckString(2)
	actor := L.CheckString(3)
	changes := L.CheckTable(4)
	if m.Apply == nil {
		L.RaiseError("engine.apply is not available")
		return 0
	}

	specs, err := changeSpecs(changes)
	if err != nil {
		L.RaiseError("engine.apply: %s", err)
		return 0
	}
	allowed, message, err := m.Apply(ref, verb, actor, specs)
	if err != nil {
		L.RaiseError("engine.apply: %s", err)
		return 0
	}
	t := L.NewTable()
	t.RawSetString("allowed", lua.LBool(allowed))
	t.RawSetString("message", lua.LString(message))
	L.Push(t)
	return 1
}
