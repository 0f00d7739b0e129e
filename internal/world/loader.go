package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlWorldFile is the top-level YAML structure for world content files.
type yamlWorldFile struct {
	World yamlWorld `yaml:"world"`
}

// yamlWorld is the YAML representation of a batch of entities.
type yamlWorld struct {
	Places []yamlEntity `yaml:"places"`
	Actors []yamlEntity `yaml:"actors"`
	Items  []yamlEntity `yaml:"items"`
	Locks  []yamlEntity `yaml:"locks"`
	Parts  []yamlEntity `yaml:"parts"`
	Exits  []yamlEntity `yaml:"exits"`
}

// yamlEntity is the YAML representation of one entity.
type yamlEntity struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Props       map[string]any `yaml:"props"`
	Behaviors   []string       `yaml:"behaviors"`
}

// LoadFromFile reads one world content YAML file into state.
//
// Precondition: path must point to a valid YAML world file.
// Postcondition: All entities are created in state, or a non-nil error.
func LoadFromFile(state *State, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading world file %s: %w", path, err)
	}
	if err := LoadFromBytes(state, data); err != nil {
		return fmt.Errorf("loading world from %s: %w", path, err)
	}
	return nil
}

// LoadFromBytes parses world content YAML and creates the entities in state.
//
// Precondition: data must be valid YAML conforming to the world schema.
// Postcondition: All entities are created, or a non-nil error and state may
// hold a partial batch (callers discard state on error).
func LoadFromBytes(state *State, data []byte) error {
	var file yamlWorldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing world YAML: %w", err)
	}

	groups := []struct {
		kind    Kind
		entries []yamlEntity
	}{
		{KindPlace, file.World.Places},
		{KindActor, file.World.Actors},
		{KindItem, file.World.Items},
		{KindLock, file.World.Locks},
		{KindPart, file.World.Parts},
		{KindExit, file.World.Exits},
	}
	for _, g := range groups {
		for _, ye := range g.entries {
			e := &Entity{
				Kind:        g.kind,
				ID:          ye.ID,
				Name:        ye.Name,
				Description: strings.TrimSpace(ye.Description),
				Props:       ye.Props,
				Behaviors:   ye.Behaviors,
			}
			if err := state.Create(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadFromDir loads all YAML files in a directory into a fresh State and
// validates cross-entity references.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns a validated State or the first error encountered.
func LoadFromDir(dir string) (*State, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}

	state := NewState()
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		if err := LoadFromFile(state, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no world files found in %s", dir)
	}

	if err := Validate(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Validate checks cross-entity invariants: every location property must be
// a well-formed reference resolving to an existing entity.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func Validate(state *State) error {
	for _, kind := range []Kind{KindPlace, KindActor, KindItem, KindLock, KindPart, KindExit} {
		for _, e := range state.All(kind) {
			raw, ok := e.Props[PropLocation].(string)
			if !ok || raw == "" {
				continue
			}
			ref, err := ParseRef(raw)
			if err != nil {
				return fmt.Errorf("%s %q: invalid location: %w", e.Kind, e.ID, err)
			}
			if _, ok := state.Get(ref); !ok {
				return fmt.Errorf("%s %q: location %q not found", e.Kind, e.ID, ref)
			}
		}
	}
	return nil
}
