package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jedharris/weft/internal/dispatch"
	"github.com/jedharris/weft/internal/mutate"
	"github.com/jedharris/weft/internal/vocab"
	"github.com/jedharris/weft/internal/world"
)

// Dispatch routes one structured command through the tiered handler chain.
// The verb is canonicalized through the vocabulary first, so synonyms
// reach handlers under their canonical word.
//
// Precondition: cmd must be non-nil with a non-empty Verb.
// Postcondition: Returns a definitive Result; never panics on unknown verbs.
func (e *Engine) Dispatch(cmd *dispatch.Command) dispatch.Result {
	log := e.logger.With(
		zap.String("trace_id", uuid.NewString()),
		zap.String("actor", string(cmd.Actor)),
		zap.String("verb", cmd.Verb),
	)

	entry, ok := e.words.Lookup(cmd.Verb)
	if !ok || !entry.Roles.Has(vocab.Verb) {
		log.Debug("unknown verb")
		return dispatch.Fail(fmt.Sprintf("I don't know the word %q.", cmd.Verb))
	}
	cmd.Verb = entry.Word

	if e.registry.ObjectRequired(cmd.Verb) && cmd.DirectObject.IsZero() {
		return dispatch.Fail(fmt.Sprintf("What do you want to %s?", cmd.Verb))
	}

	res, handled := e.registry.InvokeHandler(cmd)
	if !handled {
		log.Debug("no handler accepted the command")
		if res.Outcome.Message != "" {
			return res
		}
		return dispatch.Fail("Nothing happens.")
	}
	log.Debug("command handled",
		zap.String("disposition", res.Disposition.String()),
	)
	return res
}

// Move relocates an actor to a place through the mutation gateway, then
// fires the actor_left and actor_entered hooks on the origin and
// destination. Hook reactions only narrate; the move itself has already
// happened when they run.
//
// Postcondition: On nil error the actor's location is the destination.
func (e *Engine) Move(actor world.ActorID, to world.PlaceID) (string, error) {
	a, err := e.state.Actor(actor)
	if err != nil {
		return "", err
	}
	if _, err := e.state.Place(to); err != nil {
		return "", err
	}
	from, hadOrigin := a.Location()

	out, err := e.gateway.Apply(a.Ref(),
		[]mutate.Change{mutate.Set(to.Ref().String(), "location")},
		"go", actor)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, 3)
	if out.Message != "" {
		lines = append(lines, out.Message)
	}

	ctx := &dispatch.EventContext{Actor: actor, Verb: "go"}
	if event, claimed := e.registry.ResolveHook(dispatch.HookActorLeft); claimed && hadOrigin {
		if origin, ok := e.state.Get(from); ok {
			if r := e.registry.InvokeEntityEvent(origin, event, ctx); r.Responded && r.Message != "" {
				lines = append(lines, r.Message)
			}
		}
	}
	if event, claimed := e.registry.ResolveHook(dispatch.HookActorEntered); claimed {
		dest, _ := e.state.Place(to)
		if r := e.registry.InvokeEntityEvent(dest, event, ctx); r.Responded && r.Message != "" {
			lines = append(lines, r.Message)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Take moves an item into an actor's possession through the mutation
// gateway and fires the item_taken hook on the item.
//
// Postcondition: On nil error with Allowed outcome the item's location is
// the actor.
func (e *Engine) Take(actor world.ActorID, item world.ItemID) (string, error) {
	it, err := e.state.Item(item)
	if err != nil {
		return "", err
	}
	if _, err := e.state.Actor(actor); err != nil {
		return "", err
	}

	out, err := e.gateway.Apply(it.Ref(),
		[]mutate.Change{mutate.Set(actor.Ref().String(), "location")},
		"take", actor)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, 2)
	if out.Message != "" {
		lines = append(lines, out.Message)
	}

	if event, claimed := e.registry.ResolveHook(dispatch.HookItemTaken); claimed {
		ctx := &dispatch.EventContext{Actor: actor, Verb: "take"}
		if r := e.registry.InvokeEntityEvent(it, event, ctx); r.Responded && r.Message != "" {
			lines = append(lines, r.Message)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// CanSee asks the visibility_check hook whether an actor can observe a
// target. An unclaimed hook, or one whose behaviors stay silent, means
// everything is visible.
func (e *Engine) CanSee(actor world.ActorID, target world.Ref) (bool, string) {
	ent, ok := e.state.Get(target)
	if !ok {
		return false, ""
	}
	event, claimed := e.registry.ResolveHook(dispatch.HookVisibilityCheck)
	if !claimed {
		return true, ""
	}
	r := e.registry.InvokeEntityEvent(ent, event, &dispatch.EventContext{Actor: actor, Verb: "look"})
	if !r.Responded {
		return true, ""
	}
	return r.Allowed, r.Message
}
