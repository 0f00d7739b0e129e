// Package engine composes the load pipeline and exposes play-time
// operations: module discovery, script loading, content loading, vocabulary
// merging, registry construction, and the mutation gateway, wired together
// behind Dispatch and the engine-internal operations.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jedharris/weft/internal/config"
	"github.com/jedharris/weft/internal/dice"
	"github.com/jedharris/weft/internal/dispatch"
	"github.com/jedharris/weft/internal/mutate"
	"github.com/jedharris/weft/internal/scripting"
	"github.com/jedharris/weft/internal/vocab"
	"github.com/jedharris/weft/internal/world"
)

// Engine is the loaded game core. Construct with New; all registries are
// immutable once New returns.
type Engine struct {
	cfg      config.Config
	logger   *zap.Logger
	state    *world.State
	registry *dispatch.Registry
	gateway  *mutate.Gateway
	words    *vocab.Table
	scripts  *scripting.Manager
	roller   *dice.Roller
	modules  []*dispatch.Module
}

// New runs the full load pipeline. Every load-time failure is collected
// rather than returned one at a time; a non-nil error carries the complete
// diagnostics list.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a ready Engine, or an error and no Engine.
func New(cfg config.Config, logger *zap.Logger) (*Engine, error) {
	modules, err := dispatch.DiscoverModules(cfg.Modules.Dir)
	if err != nil {
		return nil, err
	}

	scripts := scripting.NewManager(logger)
	var diags error
	for _, mod := range modules {
		if err := scripts.LoadModule(mod, cfg.Scripting.InstructionLimit); err != nil {
			diags = multierr.Append(diags, err)
		}
	}
	if diags != nil {
		scripts.Close()
		return nil, diags
	}

	state, err := world.LoadFromDir(cfg.Content.Dir)
	if err != nil {
		scripts.Close()
		return nil, err
	}

	registry, err := dispatch.BuildRegistry(modules, logger)
	if err != nil {
		scripts.Close()
		return nil, err
	}
	for _, err := range registry.ValidateAttachments(state) {
		diags = multierr.Append(diags, err)
	}

	words, err := buildVocabulary(modules, state)
	if err != nil {
		diags = multierr.Append(diags, err)
	}
	if diags != nil {
		scripts.Close()
		return nil, diags
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		state:    state,
		registry: registry,
		gateway:  mutate.NewGateway(state, registry, logger),
		words:    words,
		scripts:  scripts,
		roller:   dice.NewLoggedRoller(dice.NewCryptoSource(), logger),
		modules:  modules,
	}
	e.wireScripts()

	logger.Info("engine loaded",
		zap.Int("modules", len(modules)),
		zap.Int("words", words.Len()),
		zap.Int("events", len(registry.Events())),
	)
	return e, nil
}

// Close releases the module VMs.
func (e *Engine) Close() { e.scripts.Close() }

// State returns the loaded world state.
func (e *Engine) State() *world.State { return e.state }

// Registry returns the dispatch registry query surface.
func (e *Engine) Registry() *dispatch.Registry { return e.registry }

// Vocabulary returns the merged word table.
func (e *Engine) Vocabulary() *vocab.Table { return e.words }

// Modules returns the discovered modules sorted by tier, then name.
func (e *Engine) Modules() []*dispatch.Module { return e.modules }

// wireScripts connects the engine.* Lua API to the loaded game.
func (e *Engine) wireScripts() {
	e.scripts.GetEntity = func(refStr string) (scripting.EntityView, bool) {
		ref, err := world.ParseRef(refStr)
		if err != nil {
			return scripting.EntityView{}, false
		}
		ent, ok := e.state.Get(ref)
		if !ok {
			return scripting.EntityView{}, false
		}
		return scripting.EntityView{
			Kind:  ent.Kind.String(),
			ID:    ent.ID,
			Name:  ent.Name,
			Props: ent.Props,
		}, true
	}

	e.scripts.Apply = func(refStr, verb, actor string, specs []scripting.ChangeSpec) (bool, string, error) {
		ref, err := world.ParseRef(refStr)
		if err != nil {
			return false, "", err
		}
		changes := make([]mutate.Change, 0, len(specs))
		for _, s := range specs {
			op, err := opFromString(s.Op)
			if err != nil {
				return false, "", err
			}
			changes = append(changes, mutate.Change{Path: s.Path, Op: op, Value: s.Value})
		}
		out, err := e.gateway.Apply(ref, changes, verb, world.ActorID(actor))
		if err != nil {
			return false, "", err
		}
		return out.Allowed, out.Message, nil
	}

	e.scripts.Roll = func(expr string) (int, error) {
		res, err := e.roller.RollExpr(expr)
		if err != nil {
			return 0, err
		}
		return res.Total(), nil
	}
}

func opFromString(s string) (mutate.Op, error) {
	switch s {
	case "set":
		return mutate.OpSet, nil
	case "append":
		return mutate.OpAppend, nil
	case "remove":
		return mutate.OpRemove, nil
	default:
		return 0, fmt.Errorf("unknown change op %q", s)
	}
}

// buildVocabulary merges the base table, module contributions in tier
// order, and nouns derived from entity display names. Contributions are
// additive; only a synonym rebinding to a different canonical word fails.
func buildVocabulary(modules []*dispatch.Module, state *world.State) (*vocab.Table, error) {
	t := vocab.Base()
	var diags error

	sorted := make([]*dispatch.Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tier != sorted[j].Tier {
			return sorted[i].Tier < sorted[j].Tier
		}
		return sorted[i].Name < sorted[j].Name
	})

	for _, mod := range sorted {
		for _, v := range mod.Declaration.Verbs {
			if err := t.Add(v.Word, vocab.RoleSet(vocab.Verb), v.Synonyms...); err != nil {
				diags = multierr.Append(diags, fmt.Errorf("module %q: %w", mod.Name, err))
			}
		}
		for _, n := range mod.Declaration.Words.Nouns {
			if err := t.Add(n, vocab.RoleSet(vocab.Noun)); err != nil {
				diags = multierr.Append(diags, fmt.Errorf("module %q: %w", mod.Name, err))
			}
		}
		for _, a := range mod.Declaration.Words.Adjectives {
			if err := t.Add(a, vocab.RoleSet(vocab.Adjective)); err != nil {
				diags = multierr.Append(diags, fmt.Errorf("module %q: %w", mod.Name, err))
			}
		}
	}

	// Display names contribute derived words: the last word of a name is a
	// noun, the preceding words adjectives ("brass lantern").
	for _, name := range state.Names() {
		fields := strings.Fields(name)
		if len(fields) == 0 {
			continue
		}
		last := fields[len(fields)-1]
		if err := t.Add(last, vocab.RoleSet(vocab.Noun)); err != nil {
			diags = multierr.Append(diags, fmt.Errorf("derived noun %q: %w", last, err))
		}
		for _, adj := range fields[:len(fields)-1] {
			if err := t.Add(adj, vocab.RoleSet(vocab.Adjective)); err != nil {
				diags = multierr.Append(diags, fmt.Errorf("derived adjective %q: %w", adj, err))
			}
		}
	}

	if diags != nil {
		return nil, diags
	}
	return t, nil
}
