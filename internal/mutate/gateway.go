package mutate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jedharris/weft/internal/dispatch"
	"github.com/jedharris/weft/internal/world"
)

// Gateway is the single path through which game state is changed. It owns
// the contract that every mutation triggers the correct reactions exactly
// once: apply the change set, look up the verb's events, and drive
// entity-event dispatch for the affected entity with fallback retry.
//
// The gateway is strictly sequential. A reaction that mutates another
// entity produces a nested call chain, never interleaving.
type Gateway struct {
	state    *world.State
	registry *dispatch.Registry
	logger   *zap.Logger
}

// NewGateway creates a Gateway.
//
// Precondition: state, registry, and logger must be non-nil.
func NewGateway(state *world.State, registry *dispatch.Registry, logger *zap.Logger) *Gateway {
	return &Gateway{state: state, registry: registry, logger: logger}
}

// Apply applies changes to the referenced entity, then dispatches the
// events registered for verb.
//
// Event walk: for each tier of the verb's event sequence in ascending
// order, invoke the primary event; if no attached behavior answers and a
// fallback event is registered for it, retry the fallback at the same
// tier; stop at the first tier that yields a response. If every tier
// yields none, the mutation still took effect and the outcome is success
// without narration, not a failure.
//
// Postcondition: On a path error no reaction fires and a *PathError is
// returned; changes before the failing one have been applied.
func (g *Gateway) Apply(ref world.Ref, changes []Change, verb string, actor world.ActorID) (dispatch.Outcome, error) {
	entity, ok := g.state.Get(ref)
	if !ok {
		return dispatch.Outcome{}, fmt.Errorf("mutate: entity %s not found", ref)
	}

	for _, c := range changes {
		if err := apply(entity, c); err != nil {
			return dispatch.Outcome{}, err
		}
		g.logger.Debug("mutation applied",
			zap.String("entity", ref.String()),
			zap.String("op", c.Op.String()),
			zap.String("path", strings.Join(c.Path, ".")),
		)
	}

	ctx := &dispatch.EventContext{
		Actor: actor,
		Verb:  verb,
		Data:  map[string]any{"paths": changedPaths(changes)},
	}
	for _, te := range g.registry.VerbEvents(verb) {
		out := g.registry.InvokeEntityEvent(entity, te.Event, ctx)
		if !out.Responded {
			if fallback, ok := g.registry.Fallback(te.Event); ok {
				out = g.registry.InvokeEntityEvent(entity, fallback, ctx)
			}
		}
		if out.Responded {
			return dispatch.Outcome{
				Allowed: out.Allowed,
				Message: out.Message,
				Data:    map[string]any{"contributors": out.Contributors, "tier": te.Tier},
			}, nil
		}
	}

	// Mutation applied, no reaction fired.
	return dispatch.Outcome{Allowed: true}, nil
}

func changedPaths(changes []Change) []string {
	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = strings.Join(c.Path, ".")
	}
	return paths
}
