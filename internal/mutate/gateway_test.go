package mutate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jedharris/weft/internal/dispatch"
	"github.com/jedharris/weft/internal/world"
)

// fixture builds a one-item world plus a registry from the given modules.
func fixture(t *testing.T, behaviors []string, mods ...*dispatch.Module) (*Gateway, *world.State) {
	t.Helper()
	state := world.NewState()
	require.NoError(t, state.Create(&world.Entity{
		Kind: world.KindItem, ID: "chest", Name: "chest", Behaviors: behaviors,
	}))
	r, err := dispatch.BuildRegistry(mods, zaptest.NewLogger(t))
	require.NoError(t, err)
	return NewGateway(state, r, zaptest.NewLogger(t)), state
}

func declModule(name string, tier int, decl dispatch.Declaration) *dispatch.Module {
	decl.Name = name
	return &dispatch.Module{
		Name:        name,
		Tier:        tier,
		Declaration: decl,
		Handlers:    make(map[string]dispatch.HandlerFunc),
		Behaviors:   make(map[string]dispatch.Behavior),
	}
}

func eventFn(result dispatch.EventResult) dispatch.EventFunc {
	return func(e *world.Entity, ctx *dispatch.EventContext) dispatch.EventResult {
		return result
	}
}

func TestApply_MutatesAndDispatchesPrimaryEvent(t *testing.T) {
	m := declModule("std", 1, dispatch.Declaration{
		Verbs: []dispatch.VerbBinding{{Word: "open", Event: "on_open"}},
	})
	m.Behaviors["hinged"] = dispatch.Behavior{Name: "hinged", Events: map[string]dispatch.EventFunc{
		"on_open": eventFn(dispatch.Allow("The lid creaks open.")),
	}}
	g, state := fixture(t, []string{"hinged"}, m)

	out, err := g.Apply(world.ItemID("chest").Ref(),
		[]Change{Set(true, "open")}, "open", "bob")
	require.NoError(t, err)

	assert.True(t, out.Allowed)
	assert.Equal(t, "The lid creaks open.", out.Message)
	assert.Equal(t, []string{"hinged"}, out.Data["contributors"])

	chest, _ := state.Item("chest")
	assert.Equal(t, true, chest.Props["open"])
}

// If no attached behavior answers the primary event, the fallback event
// registered for it is retried at the same tier before moving on.
func TestApply_FallbackRetrySameTier(t *testing.T) {
	m := declModule("std", 1, dispatch.Declaration{
		Verbs: []dispatch.VerbBinding{{Word: "take", Event: "on_take", Fallback: "on_touch"}},
	})
	m.Behaviors["touchy"] = dispatch.Behavior{Name: "touchy", Events: map[string]dispatch.EventFunc{
		// Only the fallback is answered.
		"on_touch": eventFn(dispatch.Veto("Your fingers tingle.")),
	}}
	g, _ := fixture(t, []string{"touchy"}, m)

	out, err := g.Apply(world.ItemID("chest").Ref(), nil, "take", "bob")
	require.NoError(t, err)
	assert.False(t, out.Allowed)
	assert.Equal(t, "Your fingers tingle.", out.Message)
}

// A response at tier 1 stops the walk; deeper tiers never run.
func TestApply_StopsAtFirstRespondingTier(t *testing.T) {
	t1 := declModule("story", 1, dispatch.Declaration{
		Verbs: []dispatch.VerbBinding{{Word: "open", Event: "on_story_open"}},
	})
	t1.Behaviors["scripted"] = dispatch.Behavior{Name: "scripted", Events: map[string]dispatch.EventFunc{
		"on_story_open": eventFn(dispatch.Allow("A secret compartment clicks.")),
	}}
	deeperRan := false
	t2 := declModule("std", 2, dispatch.Declaration{
		Verbs: []dispatch.VerbBinding{{Word: "open", Event: "on_open"}},
	})
	t2.Behaviors["hinged"] = dispatch.Behavior{Name: "hinged", Events: map[string]dispatch.EventFunc{
		"on_open": func(e *world.Entity, ctx *dispatch.EventContext) dispatch.EventResult {
			deeperRan = true
			return dispatch.Allow("The lid creaks open.")
		},
	}}
	g, _ := fixture(t, []string{"scripted", "hinged"}, t1, t2)

	out, err := g.Apply(world.ItemID("chest").Ref(), nil, "open", "bob")
	require.NoError(t, err)
	assert.Equal(t, "A secret compartment clicks.", out.Message)
	assert.Equal(t, 1, out.Data["tier"])
	assert.False(t, deeperRan)
}

// All tiers yielding none is success without narration, not a failure.
func TestApply_NoReactionIsSilentSuccess(t *testing.T) {
	m := declModule("std", 1, dispatch.Declaration{
		Verbs: []dispatch.VerbBinding{{Word: "polish", Event: "on_polish"}},
	})
	g, state := fixture(t, nil, m)

	out, err := g.Apply(world.ItemID("chest").Ref(),
		[]Change{Set(true, "shiny")}, "polish", "bob")
	require.NoError(t, err)

	assert.True(t, out.Allowed)
	assert.Empty(t, out.Message)
	chest, _ := state.Item("chest")
	assert.Equal(t, true, chest.Props["shiny"], "the mutation still took effect")
}

func TestApply_PathErrorSkipsDispatch(t *testing.T) {
	fired := false
	m := declModule("std", 1, dispatch.Declaration{
		Verbs: []dispatch.VerbBinding{{Word: "open", Event: "on_open"}},
	})
	m.Behaviors["hinged"] = dispatch.Behavior{Name: "hinged", Events: map[string]dispatch.EventFunc{
		"on_open": func(e *world.Entity, ctx *dispatch.EventContext) dispatch.EventResult {
			fired = true
			return dispatch.Allow("")
		},
	}}
	g, state := fixture(t, []string{"hinged"}, m)
	chest, _ := state.Item("chest")
	chest.Props["weight"] = 3

	_, err := g.Apply(world.ItemID("chest").Ref(),
		[]Change{Set(true, "weight", "heavy")}, "open", "bob")

	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.False(t, fired, "no reaction fires when the mutation fails")
}

func TestApply_UnknownEntity(t *testing.T) {
	g, _ := fixture(t, nil, declModule("std", 1, dispatch.Declaration{}))

	_, err := g.Apply(world.ItemID("ghost").Ref(), nil, "open", "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item:ghost not found")
}

func TestApply_NestedMutationFromReaction(t *testing.T) {
	// A reaction on the chest mutates a second entity through the same
	// gateway; the call chain is nested but strictly sequential.
	var g *Gateway
	m := declModule("std", 1, dispatch.Declaration{
		Verbs: []dispatch.VerbBinding{
			{Word: "open", Event: "on_open"},
			{Word: "reveal", Event: "on_reveal"},
		},
	})
	m.Behaviors["trapdoor"] = dispatch.Behavior{Name: "trapdoor", Events: map[string]dispatch.EventFunc{
		"on_open": func(e *world.Entity, ctx *dispatch.EventContext) dispatch.EventResult {
			_, err := g.Apply(world.ItemID("key").Ref(),
				[]Change{Set(true, "revealed")}, "reveal", ctx.Actor)
			if err != nil {
				return dispatch.Veto(err.Error())
			}
			return dispatch.Allow("A key drops out.")
		},
	}}
	gw, state := fixture(t, []string{"trapdoor"}, m)
	g = gw
	require.NoError(t, state.Create(&world.Entity{Kind: world.KindItem, ID: "key", Name: "key"}))

	out, err := g.Apply(world.ItemID("chest").Ref(), nil, "open", "bob")
	require.NoError(t, err)
	assert.True(t, out.Allowed)

	key, _ := state.Item("key")
	assert.Equal(t, true, key.Props["revealed"])
}
