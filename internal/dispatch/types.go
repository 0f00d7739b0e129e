// Package dispatch implements the tiered registration and dispatch core:
// module declarations, the load-time registry builder with conflict
// detection, the command-handler dispatcher, the entity-event dispatcher,
// and the hook resolver.
package dispatch

import (
	"github.com/jedharris/weft/internal/world"
)

// Disposition classifies a command handler's answer.
type Disposition uint8

const (
	// Declined means the handler did not handle the verb; dispatch falls
	// through to the next tier.
	Declined Disposition = iota
	// Success means the handler handled the verb and the action succeeded.
	Success
	// Failure means the handler handled the verb and the action failed.
	// A Failure is definitive: dispatch stops, it does not fall through.
	Failure
)

// String returns the disposition name.
func (d Disposition) String() string {
	switch d {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "declined"
	}
}

// Command is the structured payload produced by the parser layer. Dispatch
// never inspects raw text, only this record.
type Command struct {
	// Actor is the acting entity.
	Actor world.ActorID
	// Verb is the canonical verb word.
	Verb string
	// DirectObject is the optional direct-object reference (zero = absent).
	DirectObject world.Ref
	// IndirectObject is the optional indirect-object reference.
	IndirectObject world.Ref
	// Qualifier is an optional qualifying word (usually an adjective).
	Qualifier string
	// Preposition is an optional preposition string.
	Preposition string
}

// Outcome is the result record produced to callers and, transitively, to
// the narration collaborator.
type Outcome struct {
	// Allowed reports whether the action succeeded / was permitted.
	Allowed bool
	// Message is an optional human-readable message.
	Message string
	// Data is an optional structured payload for programmatic consumers.
	Data map[string]any
}

// Result is a command handler's answer: a disposition plus its outcome.
type Result struct {
	Disposition Disposition
	Outcome     Outcome
}

// Succeed builds a definitive Success result.
func Succeed(message string) Result {
	return Result{Disposition: Success, Outcome: Outcome{Allowed: true, Message: message}}
}

// Fail builds a definitive Failure result.
func Fail(message string) Result {
	return Result{Disposition: Failure, Outcome: Outcome{Allowed: false, Message: message}}
}

// Decline builds a Declined result. The message, if any, is surfaced when
// every tier declines.
func Decline(message string) Result {
	return Result{Disposition: Declined, Outcome: Outcome{Allowed: false, Message: message}}
}

// HandlerFunc is a command handler for one verb.
type HandlerFunc func(cmd *Command) Result

// EventContext carries the situation of an entity event to behaviors.
type EventContext struct {
	// Actor is the acting entity that caused the event.
	Actor world.ActorID
	// Verb is the verb that led to the event, if any.
	Verb string
	// Data carries event-specific values (e.g. the mutation applied).
	Data map[string]any
}

// EventResult is one behavior's answer to an entity event.
type EventResult struct {
	// Responded distinguishes an answer from "this behavior does not
	// define the event"; a veto is a response, silence is not.
	Responded bool
	// Allowed is the behavior's verdict. Meaningless when Responded is false.
	Allowed bool
	// Message is the behavior's narration fragment.
	Message string
}

// Allow answers an event permitting the action.
func Allow(message string) EventResult {
	return EventResult{Responded: true, Allowed: true, Message: message}
}

// Veto answers an event blocking the action.
func Veto(message string) EventResult {
	return EventResult{Responded: true, Allowed: false, Message: message}
}

// NoResponse reports that the behavior has nothing to say for this event.
func NoResponse() EventResult { return EventResult{} }

// EventFunc is a behavior's reaction to one named event.
type EventFunc func(e *world.Entity, ctx *EventContext) EventResult

// Behavior is a named bundle of event reactions attachable to entity
// instances by identifier.
type Behavior struct {
	// Name is the behavior identifier entities attach.
	Name string
	// Events maps event names to reactions.
	Events map[string]EventFunc
}

// EventOutcome is the combined result of dispatching an entity event to
// every attached behavior that defines it.
type EventOutcome struct {
	// Responded is false when no attached behavior defined the event.
	Responded bool
	// Allowed is the AND across all participating behaviors.
	Allowed bool
	// Message concatenates all participating messages in attachment order,
	// separated by a line break.
	Message string
	// Contributors lists the behaviors that participated, for debugging.
	Contributors []string
}
