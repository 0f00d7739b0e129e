package dispatch

import "go.uber.org/zap"

// InvokeHandler dispatches a command through the registered handlers for
// cmd.Verb in ascending tier order.
//
// The first Success or Failure is definitive and returned immediately; a
// Declined answer falls through to the next tier. If every tier declines,
// the returned result is Declined and carries the most specific declined
// message (the first non-empty one, i.e. from the highest-precedence
// handler that attempted the verb).
//
// Postcondition: Returns (result, true) when at least one handler was
// registered for the verb, or (zero, false) when the verb has none.
func (r *Registry) InvokeHandler(cmd *Command) (Result, bool) {
	return r.invokeFrom(cmd, 0)
}

// InvokeNextHandler invokes the handlers registered for cmd.Verb at tiers
// strictly deeper than afterTier. It is the explicit escape hatch for a
// handler that wants to try itself first and fall back to a more generic
// implementation; it is never called implicitly.
//
// Postcondition: Returns (result, true) if any deeper-tier handler exists.
func (r *Registry) InvokeNextHandler(cmd *Command, afterTier int) (Result, bool) {
	return r.invokeFrom(cmd, afterTier)
}

func (r *Registry) invokeFrom(cmd *Command, afterTier int) (Result, bool) {
	var (
		attempted bool
		declined  Result
	)
	for _, b := range r.verbHandlers[cmd.Verb] {
		if b.Tier <= afterTier {
			continue
		}
		res := b.Fn(cmd)
		r.logger.Debug("handler invoked",
			zap.String("verb", cmd.Verb),
			zap.String("module", b.Module),
			zap.Int("tier", b.Tier),
			zap.String("disposition", res.Disposition.String()),
		)
		if res.Disposition != Declined {
			return res, true
		}
		if !attempted || (declined.Outcome.Message == "" && res.Outcome.Message != "") {
			declined = res
		}
		attempted = true
	}
	if !attempted {
		return Result{}, false
	}
	return declined, true
}
