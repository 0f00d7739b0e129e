package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeModule(t *testing.T, root, rel, yaml string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DeclarationFileName), []byte(yaml), 0o644))
}

func TestDiscoverModules_TiersFromDepth(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "story", `
module:
  name: story
  verbs:
    - {word: take, event: on_story_take}
`)
	writeModule(t, root, "story/std", `
module:
  name: std
  verbs:
    - {word: take, event: on_take}
`)

	modules, err := DiscoverModules(root)
	require.NoError(t, err)
	require.Len(t, modules, 2)

	byName := make(map[string]*Module)
	for _, m := range modules {
		byName[m.Name] = m
	}
	assert.Equal(t, 1, byName["story"].Tier)
	assert.Equal(t, 2, byName["std"].Tier)
	assert.Equal(t, filepath.Join(root, "story", "std"), byName["std"].Dir)
}

func TestDiscoverModules_CollectsAllDeclarationErrors(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "a", `
module:
  verbs:
    - {word: take, event: on_take}
`)
	writeModule(t, root, "b", `
module:
  name: b
  verbs:
    - {word: take, event: grab}
`)

	_, err := DiscoverModules(root)
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 2, "problems from both modules reported together")
}

func TestDiscoverModules_DuplicateName(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "a", "module:\n  name: std\n")
	writeModule(t, root, "b", "module:\n  name: std\n")

	_, err := DiscoverModules(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module name "std"`)
}

func TestDiscoverModules_MissingRoot(t *testing.T) {
	_, err := DiscoverModules(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDiscoverModules_DeclarationAtRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DeclarationFileName), []byte("module:\n  name: std\n"), 0o644))

	_, err := DiscoverModules(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modules root itself")
}
