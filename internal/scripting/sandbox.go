// Package scripting executes author module scripts in sandboxed GopherLua
// states, one per module, and adapts the functions they define into
// dispatch handlers and behaviors. It has no dependency on game domain
// packages; all game interactions are injected via Manager callback fields.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// handler or behavior call when no module-specific limit is configured.
const DefaultInstructionLimit = 100_000

// budgetContext is a context.Context that cancels itself after Done() has
// been called more than the current budget allows. GopherLua's main loop
// calls Done() once per opcode, making this an exact instruction-count
// limit. The budget is rearmed before every call into the VM, so the limit
// applies per invocation rather than per VM lifetime.
type budgetContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the cancellation channel, burning one opcode of budget.
func (c *budgetContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// sandbox is one sandboxed VM with its rearmable instruction budget.
type sandbox struct {
	L      *lua.LState
	limit  int64
	budget *atomic.Int64
	cancel context.CancelFunc
}

// newSandbox creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Execution limited to at most instLimit Lua opcodes per invocation
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the sandbox and must call close when done.
func newSandbox(instLimit int) *sandbox {
	limit := int64(instLimit)
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	s := &sandbox{L: L, limit: limit}
	s.rearm()
	return s
}

// rearm installs a fresh instruction budget ahead of one VM invocation.
// A previous call may have exhausted its budget and cancelled its context;
// each invocation gets its own.
func (s *sandbox) rearm() {
	if s.cancel != nil {
		s.cancel()
	}
	budget := &atomic.Int64{}
	budget.Store(s.limit)
	base, cancel := context.WithCancel(context.Background())
	s.budget = budget
	s.cancel = cancel
	s.L.SetContext(&budgetContext{Context: base, cancel: cancel, remaining: budget})
}

// close cancels the budget context and closes the state.
func (s *sandbox) close() {
	s.cancel()
	s.L.Close()
}
