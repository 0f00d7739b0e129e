package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	s := NewState()
	err := s.Create(&Entity{Kind: KindItem, ID: "lantern", Name: "brass lantern"})
	require.NoError(t, err)

	e, ok := s.Get(ItemID("lantern").Ref())
	require.True(t, ok)
	assert.Equal(t, "brass lantern", e.Name)
	assert.NotNil(t, e.Props, "props map is allocated on create")
}

func TestCreate_DuplicateID(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Create(&Entity{Kind: KindActor, ID: "bob", Name: "Bob"}))

	err := s.Create(&Entity{Kind: KindActor, ID: "bob", Name: "Other Bob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate actor id "bob"`)
}

func TestCreate_SameIDDifferentKinds(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Create(&Entity{Kind: KindActor, ID: "guard", Name: "Guard"}))
	require.NoError(t, s.Create(&Entity{Kind: KindItem, ID: "guard", Name: "guard badge"}))

	// Kinds are separate namespaces; an actor id never resolves as an item.
	actor, err := s.Actor("guard")
	require.NoError(t, err)
	assert.Equal(t, KindActor, actor.Kind)

	item, err := s.Item("guard")
	require.NoError(t, err)
	assert.Equal(t, KindItem, item.Kind)
}

func TestTypedAccessor_KindMismatch(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Create(&Entity{Kind: KindActor, ID: "bob", Name: "Bob"}))

	_, err := s.Item("bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no item with id "bob"`)
}

func TestDestroy(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Create(&Entity{Kind: KindItem, ID: "coin", Name: "coin"}))
	require.NoError(t, s.Destroy(ItemID("coin").Ref()))

	_, ok := s.Get(ItemID("coin").Ref())
	assert.False(t, ok)

	err := s.Destroy(ItemID("coin").Ref())
	assert.Error(t, err, "destroying twice is an error, never a silent no-op")
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("actor:bob")
	require.NoError(t, err)
	assert.Equal(t, Ref{Kind: KindActor, ID: "bob"}, ref)
	assert.Equal(t, "actor:bob", ref.String())

	_, err = ParseRef("bob")
	assert.Error(t, err)

	_, err = ParseRef("wizardry:bob")
	assert.Error(t, err)

	_, err = ParseRef("actor:")
	assert.Error(t, err)
}

func TestLocationAndIn(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Create(&Entity{Kind: KindPlace, ID: "cellar", Name: "Cellar"}))
	require.NoError(t, s.Create(&Entity{
		Kind: KindItem, ID: "lantern", Name: "lantern",
		Props: map[string]any{PropLocation: "place:cellar"},
	}))
	require.NoError(t, s.Create(&Entity{
		Kind: KindItem, ID: "rope", Name: "rope",
		Props: map[string]any{PropLocation: "place:attic"},
	}))

	lantern, _ := s.Item("lantern")
	loc, ok := lantern.Location()
	require.True(t, ok)
	assert.Equal(t, PlaceID("cellar").Ref(), loc)

	inCellar := s.In("cellar", KindItem)
	require.Len(t, inCellar, 1)
	assert.Equal(t, "lantern", inCellar[0].ID)
}

func TestNames_Deduplicated(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Create(&Entity{Kind: KindItem, ID: "key1", Name: "Key"}))
	require.NoError(t, s.Create(&Entity{Kind: KindItem, ID: "key2", Name: "key"}))
	require.NoError(t, s.Create(&Entity{Kind: KindActor, ID: "bob", Name: "Bob"}))

	assert.Equal(t, []string{"bob", "key"}, s.Names())
}
