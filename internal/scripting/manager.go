package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/jedharris/weft/internal/dispatch"
	"github.com/jedharris/weft/internal/world"
)

// EntityView is a snapshot of an entity handed to Lua callbacks.
type EntityView struct {
	Kind  string
	ID    string
	Name  string
	Props map[string]any
}

// ChangeSpec is a property change requested by Lua code through
// engine.apply. The engine wiring converts these into typed changes for
// the mutation gateway.
type ChangeSpec struct {
	Op    string // "set", "append" or "remove"
	Path  []string
	Value any
}

// Manager owns one sandboxed LState per module and adapts the verb and
// behavior functions module scripts define into dispatch handlers and
// event reactions.
//
// Dispatch is single-threaded; the lock only guards the module map against
// CLI tooling probing VMs while modules load.
type Manager struct {
	mu     sync.RWMutex
	boxes  map[string]*sandbox
	logger *zap.Logger

	// Injected after construction. nil = the corresponding engine.* call
	// reports an error into the script.
	GetEntity func(ref string) (EntityView, bool)
	Apply     func(ref, verb, actor string, changes []ChangeSpec) (allowed bool, message string, err error)
	Roll      func(expr string) (int, error)
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		boxes:  make(map[string]*sandbox),
		logger: logger,
	}
}

// LoadModule executes every *.lua file in mod.Dir (lexicographic order) in
// a fresh sandboxed VM, then fills mod.Handlers, mod.Behaviors, and
// mod.EventFuncNames from the verbs and behaviors tables the scripts
// defined. A module without scripts is a no-op.
//
// Precondition: mod must carry a validated declaration.
// Postcondition: The module VM is registered, or an error on Lua load failure.
func (m *Manager) LoadModule(mod *dispatch.Module, instLimit int) error {
	if mod.Dir == "" {
		return nil
	}
	entries, err := os.ReadDir(mod.Dir)
	if err != nil {
		return fmt.Errorf("scripting: reading module dir %q for %q: %w", mod.Dir, mod.Name, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(mod.Dir, e.Name()))
		}
	}
	if len(luaFiles) == 0 {
		return nil
	}
	sort.Strings(luaFiles)

	box := newSandbox(instLimit)
	m.registerEngineAPI(box.L)

	for _, path := range luaFiles {
		box.rearm()
		if err := box.L.DoFile(path); err != nil {
			box.close()
			return fmt.Errorf("scripting: loading %q for module %q: %w", path, mod.Name, err)
		}
	}

	m.extract(mod, box.L)

	m.mu.Lock()
	if old, ok := m.boxes[mod.Name]; ok {
		old.close()
	}
	m.boxes[mod.Name] = box
	m.mu.Unlock()
	return nil
}

// Close releases every module VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, box := range m.boxes {
		box.close()
		delete(m.boxes, name)
	}
}

// extract wires the script-defined verbs and behaviors tables into the
// module, and records every on_* function name for the load-time lint.
func (m *Manager) extract(mod *dispatch.Module, L *lua.LState) {
	declared := make(map[string]bool, len(mod.Declaration.Verbs))
	for _, v := range mod.Declaration.Verbs {
		declared[v.Word] = true
	}

	if verbs, ok := L.GetGlobal("verbs").(*lua.LTable); ok {
		verbs.ForEach(func(k, v lua.LValue) {
			word, wok := k.(lua.LString)
			if !wok || v.Type() != lua.LTFunction {
				return
			}
			if !declared[string(word)] {
				m.logger.Warn("scripting: verb function without declaration",
					zap.String("module", mod.Name),
					zap.String("verb", string(word)),
				)
				return
			}
			mod.Handlers[string(word)] = m.handlerFor(mod.Name, string(word))
		})
	}

	if behaviors, ok := L.GetGlobal("behaviors").(*lua.LTable); ok {
		behaviors.ForEach(func(k, v lua.LValue) {
			name, nok := k.(lua.LString)
			events, eok := v.(*lua.LTable)
			if !nok || !eok {
				return
			}
			b := dispatch.Behavior{Name: string(name), Events: make(map[string]dispatch.EventFunc)}
			events.ForEach(func(ek, ev lua.LValue) {
				event, ok := ek.(lua.LString)
				if !ok || ev.Type() != lua.LTFunction {
					return
				}
				b.Events[string(event)] = m.eventFor(mod.Name, string(name), string(event))
				if strings.HasPrefix(string(event), dispatch.EventNamePrefix) {
					mod.EventFuncNames = append(mod.EventFuncNames, string(event))
				} else {
					m.logger.Warn("scripting: behavior event outside naming convention",
						zap.String("module", mod.Name),
						zap.String("behavior", string(name)),
						zap.String("event", string(event)),
					)
				}
			})
			mod.Behaviors[string(name)] = b
		})
	}

	// Stray top-level on_* functions are never invoked by anything; record
	// them so the lint pass can flag the typo.
	L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok || v.Type() != lua.LTFunction {
			return
		}
		if strings.HasPrefix(string(name), dispatch.EventNamePrefix) {
			mod.EventFuncNames = append(mod.EventFuncNames, string(name))
		}
	})
	sort.Strings(mod.EventFuncNames)
}

// handlerFor adapts one script verb function into a dispatch.HandlerFunc.
// Lua runtime errors are logged at Warn and reported as Declined; an
// author's script bug must not abort a player's session.
func (m *Manager) handlerFor(modName, word string) dispatch.HandlerFunc {
	return func(cmd *dispatch.Command) dispatch.Result {
		m.mu.RLock()
		box := m.boxes[modName]
		m.mu.RUnlock()
		if box == nil {
			return dispatch.Decline("")
		}
		L := box.L
		verbs, ok := L.GetGlobal("verbs").(*lua.LTable)
		if !ok {
			return dispatch.Decline("")
		}
		fn := verbs.RawGetString(word)
		if fn.Type() != lua.LTFunction {
			return dispatch.Decline("")
		}

		box.rearm()
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, commandTable(L, cmd)); err != nil {
			m.logger.Warn("scripting: handler error",
				zap.String("module", modName),
				zap.String("verb", word),
				zap.Error(err),
			)
			return dispatch.Decline("")
		}
		ret := L.Get(-1)
		L.Pop(1)
		return m.parseHandlerResult(modName, word, ret)
	}
}

func (m *Manager) parseHandlerResult(modName, word string, ret lua.LValue) dispatch.Result {
	t, ok := ret.(*lua.LTable)
	if !ok {
		return dispatch.Decline("")
	}
	message := ""
	if msg, ok := t.RawGetString("message").(lua.LString); ok {
		message = string(msg)
	}
	result := "success"
	if res, ok := t.RawGetString("result").(lua.LString); ok {
		result = string(res)
	}
	switch result {
	case "success":
		return dispatch.Succeed(message)
	case "failure":
		return dispatch.Fail(message)
	case "declined":
		return dispatch.Decline(message)
	default:
		m.logger.Warn("scripting: handler returned unknown result",
			zap.String("module", modName),
			zap.String("verb", word),
			zap.String("result", result),
		)
		return dispatch.Decline("")
	}
}

// eventFor adapts one behavior event function into a dispatch.EventFunc.
// Returning nil from Lua means "no response"; a table answers the event
// with allowed (default true) and message fields.
func (m *Manager) eventFor(modName, behavior, event string) dispatch.EventFunc {
	return func(e *world.Entity, ctx *dispatch.EventContext) dispatch.EventResult {
		m.mu.RLock()
		box := m.boxes[modName]
		m.mu.RUnlock()
		if box == nil {
			return dispatch.NoResponse()
		}
		L := box.L
		behaviors, ok := L.GetGlobal("behaviors").(*lua.LTable)
		if !ok {
			return dispatch.NoResponse()
		}
		events, ok := behaviors.RawGetString(behavior).(*lua.LTable)
		if !ok {
			return dispatch.NoResponse()
		}
		fn := events.RawGetString(event)
		if fn.Type() != lua.LTFunction {
			return dispatch.NoResponse()
		}

		box.rearm()
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
			entityTable(L, e), contextTable(L, ctx)); err != nil {
			m.logger.Warn("scripting: behavior event error",
				zap.String("module", modName),
				zap.String("behavior", behavior),
				zap.String("event", event),
				zap.Error(err),
			)
			return dispatch.NoResponse()
		}
		ret := L.Get(-1)
		L.Pop(1)

		t, ok := ret.(*lua.LTable)
		if !ok {
			return dispatch.NoResponse()
		}
		allowed := true
		if a, ok := t.RawGetString("allowed").(lua.LBool); ok {
			allowed = bool(a)
		}
		message := ""
		if msg, ok := t.RawGetString("message").(lua.LString); ok {
			message = string(msg)
		}
		if allowed {
			return dispatch.Allow(message)
		}
		return dispatch.Veto(message)
	}
}

// commandTable converts a command payload into its Lua representation.
// Object references travel as "kind:id" strings; absent fields are nil.
func commandTable(L *lua.LState, cmd *dispatch.Command) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("actor", lua.LString(cmd.Actor))
	t.RawSetString("verb", lua.LString(cmd.Verb))
	if !cmd.DirectObject.IsZero() {
		t.RawSetString("direct_object", lua.LString(cmd.DirectObject.String()))
	}
	if !cmd.IndirectObject.IsZero() {
		t.RawSetString("indirect_object", lua.LString(cmd.IndirectObject.String()))
	}
	if cmd.Qualifier != "" {
		t.RawSetString("qualifier", lua.LString(cmd.Qualifier))
	}
	if cmd.Preposition != "" {
		t.RawSetString("preposition", lua.LString(cmd.Preposition))
	}
	return t
}

// entityTable converts an entity snapshot into its Lua representation.
func entityTable(L *lua.LState, e *world.Entity) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(e.Kind.String()))
	t.RawSetString("id", lua.LString(e.ID))
	t.RawSetString("name", lua.LString(e.Name))
	t.RawSetString("props", goToLua(L, e.Props))
	return t
}

// contextTable converts an event context into its Lua representation.
func contextTable(L *lua.LState, ctx *dispatch.EventContext) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("actor", lua.LString(ctx.Actor))
	t.RawSetString("verb", lua.LString(ctx.Verb))
	return t
}
