package mutate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedharris/weft/internal/world"
)

func testEntity(props map[string]any) *world.Entity {
	if props == nil {
		props = make(map[string]any)
	}
	return &world.Entity{Kind: world.KindItem, ID: "chest", Name: "chest", Props: props}
}

func TestApply_SetCreatesIntermediates(t *testing.T) {
	e := testEntity(nil)
	require.NoError(t, apply(e, Set(true, "lock", "state", "open")))

	lock, ok := e.Props["lock"].(map[string]any)
	require.True(t, ok)
	state, ok := lock["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, state["open"])
}

func TestApply_SetOverwrites(t *testing.T) {
	e := testEntity(map[string]any{"weight": 3})
	require.NoError(t, apply(e, Set(5, "weight")))
	assert.Equal(t, 5, e.Props["weight"])
}

func TestApply_TraverseNonMappingFails(t *testing.T) {
	e := testEntity(map[string]any{"weight": 3})
	err := apply(e, Set(true, "weight", "heavy"))
	require.Error(t, err)

	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, world.ItemID("chest").Ref(), pe.Entity)
	assert.Contains(t, pe.Error(), `segment "weight" is not a mapping`)
}

func TestApply_AppendToAbsentKeyCreatesSequence(t *testing.T) {
	e := testEntity(nil)
	require.NoError(t, apply(e, Append("rusty", "tags")))
	require.NoError(t, apply(e, Append("heavy", "tags")))
	assert.Equal(t, []any{"rusty", "heavy"}, e.Props["tags"])
}

func TestApply_AppendToNonSequenceFails(t *testing.T) {
	e := testEntity(map[string]any{"tags": "rusty"})
	err := apply(e, Append("heavy", "tags"))
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, OpAppend, pe.Op)
	assert.Contains(t, pe.Reason, "not a sequence")
}

func TestApply_Remove(t *testing.T) {
	e := testEntity(map[string]any{"tags": []any{"rusty", "heavy", "rusty"}})
	require.NoError(t, apply(e, Remove("rusty", "tags")))
	assert.Equal(t, []any{"heavy", "rusty"}, e.Props["tags"], "only the first match is removed")
}

func TestApply_RemoveMissingValueFails(t *testing.T) {
	e := testEntity(map[string]any{"tags": []any{"heavy"}})
	err := apply(e, Remove("rusty", "tags"))
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "value not present in sequence", pe.Reason)
}

func TestApply_RemoveFromAbsentKeyFails(t *testing.T) {
	e := testEntity(nil)
	err := apply(e, Remove("rusty", "tags"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no sequence at "tags"`)
}

func TestApply_EmptyPathFails(t *testing.T) {
	err := apply(testEntity(nil), Change{Op: OpSet, Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty path")
}
