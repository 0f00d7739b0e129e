package dispatch

import (
	"strings"

	"go.uber.org/zap"

	"github.com/jedharris/weft/internal/world"
)

// InvokeEntityEvent dispatches event to the behaviors attached to one
// specific entity instance. Unlike command-handler dispatch there is no
// winner: every attached behavior that defines the event participates, in
// attachment order.
//
// Combination rule: the combined Allowed flag is the AND across all
// participating answers (any one behavior can veto); messages are
// concatenated in attachment order separated by a line break. If no
// attached behavior defines the event, Responded is false, which is
// distinct from an explicit veto.
//
// Precondition: entity must be non-nil; ctx may be nil for context-free
// events.
func (r *Registry) InvokeEntityEvent(entity *world.Entity, event string, ctx *EventContext) EventOutcome {
	if ctx == nil {
		ctx = &EventContext{}
	}
	out := EventOutcome{Allowed: true}
	var messages []string

	for _, name := range entity.Behaviors {
		binding, ok := r.behaviors[name]
		if !ok {
			// Unknown attachments are reported at load by ValidateAttachments;
			// during play they are skipped.
			r.logger.Warn("entity references unregistered behavior",
				zap.String("entity", entity.Ref().String()),
				zap.String("behavior", name),
			)
			continue
		}
		fn, ok := binding.Behavior.Events[event]
		if !ok {
			continue
		}
		res := fn(entity, ctx)
		if !res.Responded {
			continue
		}
		out.Responded = true
		out.Allowed = out.Allowed && res.Allowed
		out.Contributors = append(out.Contributors, name)
		if res.Message != "" {
			messages = append(messages, res.Message)
		}
	}

	if !out.Responded {
		return EventOutcome{}
	}
	out.Message = strings.Join(messages, "\n")
	return out
}

// ValidateAttachments checks that every behavior identifier attached to an
// entity in state is registered. Run after content load so that attachment
// typos surface as load-time errors, not silent play-time skips.
//
// Postcondition: Returns one error per unknown attachment, or nil.
func (r *Registry) ValidateAttachments(state *world.State) []error {
	var errs []error
	for _, kind := range []world.Kind{
		world.KindPlace, world.KindActor, world.KindItem,
		world.KindLock, world.KindPart, world.KindExit,
	} {
		for _, e := range state.All(kind) {
			for _, name := range e.Behaviors {
				if !r.HasBehavior(name) {
					errs = append(errs, &UnknownBehaviorError{Entity: e.Ref(), Behavior: name})
				}
			}
		}
	}
	return errs
}

// UnknownBehaviorError reports a content entity attaching a behavior no
// module registered.
type UnknownBehaviorError struct {
	Entity   world.Ref
	Behavior string
}

// Error implements error.
func (e *UnknownBehaviorError) Error() string {
	return "entity " + e.Entity.String() + " attaches unregistered behavior " + e.Behavior
}
