package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWorldYAML = `
world:
  places:
    - id: cellar
      name: Cellar
      description: |
        A damp stone cellar.
  actors:
    - id: player
      name: You
      props:
        location: "place:cellar"
  items:
    - id: lantern
      name: brass lantern
      props:
        location: "place:cellar"
        portable: true
      behaviors: [portable]
`

func TestLoadFromBytes(t *testing.T) {
	s := NewState()
	require.NoError(t, LoadFromBytes(s, []byte(validWorldYAML)))

	place, err := s.Place("cellar")
	require.NoError(t, err)
	assert.Equal(t, "Cellar", place.Name)
	assert.Equal(t, "A damp stone cellar.", place.Description)

	lantern, err := s.Item("lantern")
	require.NoError(t, err)
	assert.Equal(t, true, lantern.Props["portable"])
	assert.Equal(t, []string{"portable"}, lantern.Behaviors)
}

func TestLoadFromBytes_InvalidYAML(t *testing.T) {
	err := LoadFromBytes(NewState(), []byte("world: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing world YAML")
}

func TestLoadFromBytes_MissingName(t *testing.T) {
	err := LoadFromBytes(NewState(), []byte(`
world:
  items:
    - id: lantern
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty name")
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cellar.yaml"), []byte(validWorldYAML), 0o644))

	s, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Len(t, s.All(KindItem), 1)
	assert.Len(t, s.All(KindPlace), 1)
}

func TestLoadFromDir_Empty(t *testing.T) {
	_, err := LoadFromDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no world files")
}

func TestValidate_DanglingLocation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(`
world:
  items:
    - id: lantern
      name: lantern
      props:
        location: "place:nowhere"
`), 0o644))

	_, err := LoadFromDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `location "place:nowhere" not found`)
}

func TestValidate_MalformedLocation(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Create(&Entity{
		Kind: KindItem, ID: "lantern", Name: "lantern",
		Props: map[string]any{PropLocation: "not-a-ref"},
	}))

	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid location")
}
