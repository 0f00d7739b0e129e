package dispatch

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// handlerBinding is one tier's command handler for a verb.
type handlerBinding struct {
	Tier   int
	Module string
	Fn     HandlerFunc
}

// eventBinding is one tier's event for a verb.
type eventBinding struct {
	Tier   int
	Module string
	Event  string
}

// hookBinding is the current winner for a hook.
type hookBinding struct {
	Event  string
	Tier   int
	Module string
}

// fallbackBinding records the fallback event for an event.
type fallbackBinding struct {
	Fallback string
	Module   string
	Tier     int
}

// EventInfo is the registration metadata for one event, exposed on the
// query surface.
type EventInfo struct {
	// Name is the event name.
	Name string
	// RegisteredBy lists the registering modules, sorted.
	RegisteredBy []string
	// Description is the first non-empty declared description.
	Description string
	// Hook is the hook this event claims, if any.
	Hook string
}

// behaviorBinding is a registered behavior with its provenance.
type behaviorBinding struct {
	Behavior Behavior
	Tier     int
	Module   string
}

// Registry holds every dispatch table. It is built once during the load
// pass and read-only afterward; play-time code never mutates it.
type Registry struct {
	verbHandlers  map[string][]handlerBinding
	verbEvents    map[string][]eventBinding
	hookTable     map[string]hookBinding
	fallbackTable map[string]fallbackBinding
	events        map[string]*EventInfo
	behaviors     map[string]behaviorBinding
	objectNeeded  map[string]bool
	modulesByTier map[int][]string
	logger        *zap.Logger
}

// BuildRegistry constructs the full registry set from loaded modules in a
// single pass. Module order does not matter: every table is deterministic
// given the same declarations and tiers.
//
// All load-time problems are collected and returned together (via
// multierr), never one at a time, so an author can fix a miswired project
// in one pass.
//
// Precondition: every module must carry a validated declaration and an
// assigned tier >= 1; logger must be non-nil.
// Postcondition: Returns a complete Registry, or nil and the combined
// diagnostics.
func BuildRegistry(modules []*Module, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		verbHandlers:  make(map[string][]handlerBinding),
		verbEvents:    make(map[string][]eventBinding),
		hookTable:     make(map[string]hookBinding),
		fallbackTable: make(map[string]fallbackBinding),
		events:        make(map[string]*EventInfo),
		behaviors:     make(map[string]behaviorBinding),
		objectNeeded:  make(map[string]bool),
		modulesByTier: make(map[int][]string),
	}
	r.logger = logger

	// Process modules in a deterministic order so that, when the same
	// mistake produces several diagnostics, they come out stably. The
	// resulting tables are order-independent regardless.
	sorted := make([]*Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tier != sorted[j].Tier {
			return sorted[i].Tier < sorted[j].Tier
		}
		return sorted[i].Name < sorted[j].Name
	})

	var diags error
	for _, m := range sorted {
		r.modulesByTier[m.Tier] = append(r.modulesByTier[m.Tier], m.Name)
		for _, err := range r.addModule(m) {
			diags = multierr.Append(diags, err)
		}
	}

	// Ascending tier order for every dispatch sequence.
	for verb := range r.verbHandlers {
		hs := r.verbHandlers[verb]
		sort.SliceStable(hs, func(i, j int) bool { return hs[i].Tier < hs[j].Tier })
	}
	for verb := range r.verbEvents {
		es := r.verbEvents[verb]
		sort.SliceStable(es, func(i, j int) bool { return es[i].Tier < es[j].Tier })
	}

	for _, m := range sorted {
		for _, err := range r.lintModule(m) {
			diags = multierr.Append(diags, err)
		}
	}

	if diags != nil {
		return nil, diags
	}

	logger.Info("registry built",
		zap.Int("modules", len(modules)),
		zap.Int("verbs", len(r.verbEvents)),
		zap.Int("events", len(r.events)),
		zap.Int("hooks", len(r.hookTable)),
		zap.Int("behaviors", len(r.behaviors)),
	)
	return r, nil
}

// addModule folds one module's declarations into the tables, returning
// every problem found rather than stopping at the first.
func (r *Registry) addModule(m *Module) []error {
	var errs []error

	for _, v := range m.Declaration.Verbs {
		// Within one tier, at most one module may bind a verb.
		conflicted := false
		for _, existing := range r.verbEvents[v.Word] {
			if existing.Tier == m.Tier {
				errs = append(errs, fmt.Errorf(
					"verb %q: modules %q and %q both bind it at tier %d",
					v.Word, existing.Module, m.Name, m.Tier))
				conflicted = true
			}
		}
		if conflicted {
			continue
		}
		r.verbEvents[v.Word] = append(r.verbEvents[v.Word], eventBinding{
			Tier: m.Tier, Module: m.Name, Event: v.Event,
		})
		if v.ObjectRequired {
			r.objectNeeded[v.Word] = true
		}
		r.registerEvent(v.Event, m.Name, "", "")

		if v.Fallback != "" {
			if existing, ok := r.fallbackTable[v.Event]; ok && existing.Fallback != v.Fallback {
				errs = append(errs, fmt.Errorf(
					"event %q: modules %q (tier %d) and %q (tier %d) declare different fallbacks %q and %q",
					v.Event, existing.Module, existing.Tier, m.Name, m.Tier, existing.Fallback, v.Fallback))
			} else if !ok {
				r.fallbackTable[v.Event] = fallbackBinding{Fallback: v.Fallback, Module: m.Name, Tier: m.Tier}
				r.registerEvent(v.Fallback, m.Name, "", "")
			}
		}

		if fn, ok := m.Handlers[v.Word]; ok {
			r.verbHandlers[v.Word] = append(r.verbHandlers[v.Word], handlerBinding{
				Tier: m.Tier, Module: m.Name, Fn: fn,
			})
		}
	}

	for _, e := range m.Declaration.Events {
		r.registerEvent(e.Name, m.Name, e.Description, e.Hook)
		if e.Hook != "" {
			if err := r.claimHook(e.Hook, e.Name, m.Tier, m.Name); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for name, b := range m.Behaviors {
		existing, ok := r.behaviors[name]
		switch {
		case !ok:
			r.behaviors[name] = behaviorBinding{Behavior: b, Tier: m.Tier, Module: m.Name}
		case existing.Tier == m.Tier:
			errs = append(errs, fmt.Errorf(
				"behavior %q: modules %q and %q both define it at tier %d",
				name, existing.Module, m.Name, m.Tier))
		case m.Tier < existing.Tier:
			r.behaviors[name] = behaviorBinding{Behavior: b, Tier: m.Tier, Module: m.Name}
		}
	}

	return errs
}

// claimHook applies the hook-claim precedence algorithm: unclaimed hooks
// are claimed; re-claims by the same event are no-ops; a claim at a
// strictly higher-precedence tier (lower number) overwrites; equal-tier
// claims by different events are hard conflicts.
func (r *Registry) claimHook(hook, event string, tier int, module string) error {
	existing, ok := r.hookTable[hook]
	switch {
	case !ok:
		r.hookTable[hook] = hookBinding{Event: event, Tier: tier, Module: module}
	case existing.Event == event:
		// Same event re-claiming the hook, regardless of tier.
	case tier == existing.Tier:
		return fmt.Errorf(
			"hook %q: modules %q (event %q) and %q (event %q) conflict at tier %d",
			hook, existing.Module, existing.Event, module, event, tier)
	case tier < existing.Tier:
		r.hookTable[hook] = hookBinding{Event: event, Tier: tier, Module: module}
	}
	return nil
}

// registerEvent records an event registration. Description and hook stick
// on first non-empty value.
func (r *Registry) registerEvent(name, module, description, hook string) {
	info, ok := r.events[name]
	if !ok {
		info = &EventInfo{Name: name}
		r.events[name] = info
	}
	found := false
	for _, m := range info.RegisteredBy {
		if m == module {
			found = true
			break
		}
	}
	if !found {
		info.RegisteredBy = append(info.RegisteredBy, module)
		sort.Strings(info.RegisteredBy)
	}
	if info.Description == "" {
		info.Description = description
	}
	if info.Hook == "" {
		info.Hook = hook
	}
}

// lintModule enforces the event naming convention: every script function
// named on_* must correspond to a registered event. This catches typos and
// accidental collisions at load, before any player sees them.
func (r *Registry) lintModule(m *Module) []error {
	var errs []error
	for _, fn := range m.EventFuncNames {
		if _, ok := r.events[fn]; !ok {
			errs = append(errs, fmt.Errorf(
				"module %q (tier %d): function %q matches the event naming convention but no such event is registered",
				m.Name, m.Tier, fn))
		}
	}
	return errs
}

// ObjectRequired reports whether any binding for verb requires a direct
// object.
func (r *Registry) ObjectRequired(verb string) bool { return r.objectNeeded[verb] }

// Fallback returns the registered fallback event for event, if any.
func (r *Registry) Fallback(event string) (string, bool) {
	fb, ok := r.fallbackTable[event]
	return fb.Fallback, ok
}

// VerbEvents returns the (tier, event) sequence for verb in ascending tier
// order. The returned slice must not be modified.
func (r *Registry) VerbEvents(verb string) []TieredEvent {
	bindings := r.verbEvents[verb]
	out := make([]TieredEvent, len(bindings))
	for i, b := range bindings {
		out[i] = TieredEvent{Tier: b.Tier, Event: b.Event}
	}
	return out
}

// TieredEvent is one entry of a verb's event sequence.
type TieredEvent struct {
	Tier  int
	Event string
}

// Events returns all registered event names, sorted.
func (r *Registry) Events() []string {
	names := make([]string, 0, len(r.events))
	for n := range r.events {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EventInfo returns the metadata for one event.
//
// Postcondition: Returns (info, true) if the event is registered.
func (r *Registry) EventInfo(name string) (EventInfo, bool) {
	info, ok := r.events[name]
	if !ok {
		return EventInfo{}, false
	}
	return *info, true
}

// HookEntry is one claimed hook on the query surface.
type HookEntry struct {
	Hook   string
	Event  string
	Tier   int
	Module string
}

// Hooks returns every claimed hook and its resolved event, sorted by hook
// name.
func (r *Registry) Hooks() []HookEntry {
	out := make([]HookEntry, 0, len(r.hookTable))
	for hook, b := range r.hookTable {
		out = append(out, HookEntry{Hook: hook, Event: b.Event, Tier: b.Tier, Module: b.Module})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hook < out[j].Hook })
	return out
}

// TierEntry is one tier and its occupying modules.
type TierEntry struct {
	Tier    int
	Modules []string
}

// Tiers returns every occupied tier in ascending order with its modules
// sorted by name.
func (r *Registry) Tiers() []TierEntry {
	out := make([]TierEntry, 0, len(r.modulesByTier))
	for tier, mods := range r.modulesByTier {
		sorted := make([]string, len(mods))
		copy(sorted, mods)
		sort.Strings(sorted)
		out = append(out, TierEntry{Tier: tier, Modules: sorted})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}

// BehaviorNames returns every registered behavior name, sorted.
func (r *Registry) BehaviorNames() []string {
	names := make([]string, 0, len(r.behaviors))
	for n := range r.behaviors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasBehavior reports whether a behavior is registered.
func (r *Registry) HasBehavior(name string) bool {
	_, ok := r.behaviors[name]
	return ok
}
