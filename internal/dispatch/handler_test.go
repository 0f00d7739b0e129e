package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func buildWithHandlers(t *testing.T, mods ...*Module) *Registry {
	t.Helper()
	r, err := BuildRegistry(mods, zaptest.NewLogger(t))
	require.NoError(t, err)
	return r
}

func verbModule(name string, tier int, verb string, fn HandlerFunc) *Module {
	m := testModule(name, tier, Declaration{
		Verbs: []VerbBinding{{Word: verb, Event: "on_" + verb}},
	})
	if fn != nil {
		m.Handlers[verb] = fn
	}
	return m
}

func TestInvokeHandler_TierFallthrough(t *testing.T) {
	var tried []string
	tier1 := verbModule("story", 1, "take", func(cmd *Command) Result {
		tried = append(tried, "story")
		return Decline("")
	})
	tier2 := verbModule("core", 2, "take", func(cmd *Command) Result {
		tried = append(tried, "core")
		return Succeed("Taken.")
	})
	r := buildWithHandlers(t, tier2, tier1)

	res, ok := r.InvokeHandler(&Command{Verb: "take"})
	require.True(t, ok)
	assert.Equal(t, Success, res.Disposition)
	assert.Equal(t, "Taken.", res.Outcome.Message)
	assert.Equal(t, []string{"story", "core"}, tried, "tier 1 must be tried first, its decline observed")
}

func TestInvokeHandler_UnknownVerb(t *testing.T) {
	r := buildWithHandlers(t)

	_, ok := r.InvokeHandler(&Command{Verb: "juggle"})
	assert.False(t, ok)
}

// A Failure is definitive: dispatch stops without trying deeper tiers.
// This encodes the "first definitive result wins" policy.
func TestInvokeHandler_FailureIsDefinitive(t *testing.T) {
	tier3Ran := false
	tier1 := verbModule("story", 1, "take", nil) // declares the verb, no handler
	tier2 := verbModule("core", 2, "take", func(cmd *Command) Result {
		return Fail("It is bolted to the floor.")
	})
	tier3 := verbModule("base", 3, "take", func(cmd *Command) Result {
		tier3Ran = true
		return Succeed("Taken anyway.")
	})
	r := buildWithHandlers(t, tier1, tier2, tier3)

	res, ok := r.InvokeHandler(&Command{Verb: "take"})
	require.True(t, ok)
	assert.Equal(t, Failure, res.Disposition)
	assert.False(t, res.Outcome.Allowed)
	assert.Equal(t, "It is bolted to the floor.", res.Outcome.Message)
	assert.False(t, tier3Ran, "a definitive failure must not fall through")
}

func TestInvokeHandler_AllDeclinedKeepsMostSpecificMessage(t *testing.T) {
	tier1 := verbModule("story", 1, "open", func(cmd *Command) Result {
		return Decline("You see nothing here to open.")
	})
	tier2 := verbModule("core", 2, "open", func(cmd *Command) Result {
		return Decline("Open what?")
	})
	r := buildWithHandlers(t, tier1, tier2)

	res, ok := r.InvokeHandler(&Command{Verb: "open"})
	require.True(t, ok)
	assert.Equal(t, Declined, res.Disposition)
	assert.Equal(t, "You see nothing here to open.", res.Outcome.Message,
		"highest-precedence declined message wins")
}

func TestInvokeHandler_EmptyDeclineFallsBackToLaterMessage(t *testing.T) {
	tier1 := verbModule("story", 1, "open", func(cmd *Command) Result {
		return Decline("")
	})
	tier2 := verbModule("core", 2, "open", func(cmd *Command) Result {
		return Decline("Open what?")
	})
	r := buildWithHandlers(t, tier1, tier2)

	res, ok := r.InvokeHandler(&Command{Verb: "open"})
	require.True(t, ok)
	assert.Equal(t, "Open what?", res.Outcome.Message)
}

func TestInvokeNextHandler_ExplicitEscapeHatch(t *testing.T) {
	tier2 := verbModule("core", 2, "look", func(cmd *Command) Result {
		return Succeed("A plain room.")
	})
	var r *Registry
	tier1 := verbModule("story", 1, "look", func(cmd *Command) Result {
		// Try the more generic implementation explicitly.
		res, ok := r.InvokeNextHandler(cmd, 1)
		if !ok {
			return Decline("")
		}
		res.Outcome.Message = "Moonlight spills in.\n" + res.Outcome.Message
		return res
	})
	r = buildWithHandlers(t, tier1, tier2)

	res, ok := r.InvokeHandler(&Command{Verb: "look"})
	require.True(t, ok)
	assert.Equal(t, Success, res.Disposition)
	assert.Equal(t, "Moonlight spills in.\nA plain room.", res.Outcome.Message)
}
