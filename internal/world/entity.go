// Package world provides the entity model and the world-state container
// that owns every entity. Relationships between entities are references by
// identifier; the container is the sole source of truth.
package world

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the kind of an entity. Identifiers are unique within a
// kind and never interchangeable across kinds.
type Kind uint8

// Entity kinds.
const (
	KindPlace Kind = iota + 1
	KindActor
	KindItem
	KindLock
	KindPart
	KindExit
)

// String returns the lowercase kind name used in references and content files.
func (k Kind) String() string {
	switch k {
	case KindPlace:
		return "place"
	case KindActor:
		return "actor"
	case KindItem:
		return "item"
	case KindLock:
		return "lock"
	case KindPart:
		return "part"
	case KindExit:
		return "exit"
	default:
		return "unknown"
	}
}

// KindFromString parses a kind name.
//
// Postcondition: Returns (kind, true) for a known name, or (0, false).
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "place":
		return KindPlace, true
	case "actor":
		return KindActor, true
	case "item":
		return KindItem, true
	case "lock":
		return KindLock, true
	case "part":
		return KindPart, true
	case "exit":
		return KindExit, true
	default:
		return 0, false
	}
}

// Typed identifiers, one per kind. The distinct types keep an actor
// identifier from ever being accepted where an item identifier is expected.
type (
	// PlaceID identifies a place.
	PlaceID string
	// ActorID identifies an actor.
	ActorID string
	// ItemID identifies an item.
	ItemID string
	// LockID identifies a lock.
	LockID string
	// PartID identifies a spatial sub-part of a place.
	PartID string
	// ExitID identifies an exit descriptor.
	ExitID string
)

// Ref returns a kind-tagged reference to the place.
func (id PlaceID) Ref() Ref { return Ref{Kind: KindPlace, ID: string(id)} }

// Ref returns a kind-tagged reference to the actor.
func (id ActorID) Ref() Ref { return Ref{Kind: KindActor, ID: string(id)} }

// Ref returns a kind-tagged reference to the item.
func (id ItemID) Ref() Ref { return Ref{Kind: KindItem, ID: string(id)} }

// Ref returns a kind-tagged reference to the lock.
func (id LockID) Ref() Ref { return Ref{Kind: KindLock, ID: string(id)} }

// Ref returns a kind-tagged reference to the part.
func (id PartID) Ref() Ref { return Ref{Kind: KindPart, ID: string(id)} }

// Ref returns a kind-tagged reference to the exit.
func (id ExitID) Ref() Ref { return Ref{Kind: KindExit, ID: string(id)} }

// Ref is a kind-tagged entity reference as it travels across boundaries
// (command payloads, properties, content files).
type Ref struct {
	Kind Kind
	ID   string
}

// String renders the reference in "kind:id" form.
func (r Ref) String() string { return r.Kind.String() + ":" + r.ID }

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool { return r.Kind == 0 && r.ID == "" }

// ParseRef parses a "kind:id" reference string.
//
// Postcondition: Returns a valid Ref or a descriptive error.
func ParseRef(s string) (Ref, error) {
	kindStr, id, ok := strings.Cut(s, ":")
	if !ok {
		return Ref{}, fmt.Errorf("world: reference %q is not in kind:id form", s)
	}
	kind, ok := KindFromString(kindStr)
	if !ok {
		return Ref{}, fmt.Errorf("world: reference %q has unknown kind %q", s, kindStr)
	}
	if id == "" {
		return Ref{}, fmt.Errorf("world: reference %q has empty id", s)
	}
	return Ref{Kind: kind, ID: id}, nil
}

// Entity is one world entity instance.
type Entity struct {
	// Kind is the entity kind; immutable after creation.
	Kind Kind
	// ID is unique within the kind.
	ID string
	// Name is the display name (becomes a noun in the vocabulary).
	Name string
	// Description is free-form descriptive text.
	Description string
	// Props is the open property mapping. Mutated only through the
	// mutation gateway during play.
	Props map[string]any
	// Behaviors lists attached behavior identifiers in attachment order.
	Behaviors []string
}

// Ref returns the kind-tagged reference to this entity.
func (e *Entity) Ref() Ref { return Ref{Kind: e.Kind, ID: e.ID} }

// PropLocation is the conventional property key holding an entity's
// location as a "kind:id" reference string.
const PropLocation = "location"

// Location returns the entity's location reference, if it has one.
func (e *Entity) Location() (Ref, bool) {
	raw, ok := e.Props[PropLocation].(string)
	if !ok || raw == "" {
		return Ref{}, false
	}
	ref, err := ParseRef(raw)
	if err != nil {
		return Ref{}, false
	}
	return ref, true
}

// State is the world-state container owning every entity.
type State struct {
	entities map[Kind]map[string]*Entity
}

// NewState creates an empty container.
func NewState() *State {
	return &State{entities: make(map[Kind]map[string]*Entity)}
}

// Create adds an entity to the container.
//
// Precondition: e must have a valid kind, non-empty ID and Name.
// Postcondition: Get(e.Ref()) returns e, or an error is returned and the
// container is unchanged.
func (s *State) Create(e *Entity) error {
	if e.Kind.String() == "unknown" {
		return fmt.Errorf("world: entity %q has unknown kind", e.ID)
	}
	if e.ID == "" {
		return fmt.Errorf("world: %s entity has empty id", e.Kind)
	}
	if e.Name == "" {
		return fmt.Errorf("world: %s %q has empty name", e.Kind, e.ID)
	}
	byID := s.entities[e.Kind]
	if byID == nil {
		byID = make(map[string]*Entity)
		s.entities[e.Kind] = byID
	}
	if _, exists := byID[e.ID]; exists {
		return fmt.Errorf("world: duplicate %s id %q", e.Kind, e.ID)
	}
	if e.Props == nil {
		e.Props = make(map[string]any)
	}
	byID[e.ID] = e
	return nil
}

// Get resolves a reference to its entity.
func (s *State) Get(ref Ref) (*Entity, bool) {
	e, ok := s.entities[ref.Kind][ref.ID]
	return e, ok
}

// Place resolves a place identifier.
//
// Postcondition: Returns the place entity or an error naming the id.
func (s *State) Place(id PlaceID) (*Entity, error) { return s.get(id.Ref()) }

// Actor resolves an actor identifier.
func (s *State) Actor(id ActorID) (*Entity, error) { return s.get(id.Ref()) }

// Item resolves an item identifier.
func (s *State) Item(id ItemID) (*Entity, error) { return s.get(id.Ref()) }

// Lock resolves a lock identifier.
func (s *State) Lock(id LockID) (*Entity, error) { return s.get(id.Ref()) }

func (s *State) get(ref Ref) (*Entity, error) {
	e, ok := s.Get(ref)
	if !ok {
		return nil, fmt.Errorf("world: no %s with id %q", ref.Kind, ref.ID)
	}
	return e, nil
}

// Destroy removes an entity from the container. Destruction is always
// explicit; nothing removes entities implicitly.
//
// Postcondition: Get(ref) fails, or an error is returned if ref was absent.
func (s *State) Destroy(ref Ref) error {
	byID := s.entities[ref.Kind]
	if _, ok := byID[ref.ID]; !ok {
		return fmt.Errorf("world: cannot destroy %s: not found", ref)
	}
	delete(byID, ref.ID)
	return nil
}

// All returns every entity of the given kind, sorted by ID.
func (s *State) All(kind Kind) []*Entity {
	byID := s.entities[kind]
	out := make([]*Entity, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Names returns the display names of all entities, sorted and deduplicated.
// The vocabulary merger derives nouns from these.
func (s *State) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, byID := range s.entities {
		for _, e := range byID {
			n := strings.ToLower(e.Name)
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names
}

// In returns all entities of the given kind located in place, in ID order.
func (s *State) In(place PlaceID, kind Kind) []*Entity {
	var out []*Entity
	for _, e := range s.All(kind) {
		if loc, ok := e.Location(); ok && loc == place.Ref() {
			out = append(out, e)
		}
	}
	return out
}
