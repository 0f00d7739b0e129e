// Package mutate provides the mutation gateway: the single path through
// which entity state changes, and the typed property-path changes it
// applies. After applying a change set it drives entity-event dispatch for
// the affected entity, including fallback-event retry.
package mutate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jedharris/weft/internal/world"
)

// Op says how a change applies at the end of its path.
type Op uint8

const (
	// OpSet replaces the value at the path.
	OpSet Op = iota
	// OpAppend appends to the sequence at the path.
	OpAppend
	// OpRemove removes a value from the sequence at the path.
	OpRemove
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpAppend:
		return "append"
	case OpRemove:
		return "remove"
	default:
		return "set"
	}
}

// Change is one typed property mutation: a path of nested map keys, an
// operation, and a value. Paths are sequences of segments, never parsed
// from delimiter syntax at the call site.
type Change struct {
	Path  []string
	Op    Op
	Value any
}

// Set builds a change replacing the value at path.
func Set(value any, path ...string) Change {
	return Change{Path: path, Op: OpSet, Value: value}
}

// Append builds a change appending value to the sequence at path. An
// absent key is treated as an empty sequence.
func Append(value any, path ...string) Change {
	return Change{Path: path, Op: OpAppend, Value: value}
}

// Remove builds a change removing value from the sequence at path.
func Remove(value any, path ...string) Change {
	return Change{Path: path, Op: OpRemove, Value: value}
}

// PathError reports a change that could not be applied because the entity's
// properties have the wrong shape along the path.
type PathError struct {
	Entity world.Ref
	Path   []string
	Op     Op
	Reason string
}

// Error implements error.
func (e *PathError) Error() string {
	return fmt.Sprintf("mutate: %s %s on %s: %s",
		e.Op, strings.Join(e.Path, "."), e.Entity, e.Reason)
}

// apply applies one change to an entity's property map, creating
// intermediate maps as needed.
func apply(e *world.Entity, c Change) error {
	if len(c.Path) == 0 {
		return &PathError{Entity: e.Ref(), Path: c.Path, Op: c.Op, Reason: "empty path"}
	}

	m := e.Props
	for i, seg := range c.Path[:len(c.Path)-1] {
		next, ok := m[seg]
		if !ok {
			child := make(map[string]any)
			m[seg] = child
			m = child
			continue
		}
		childMap, ok := next.(map[string]any)
		if !ok {
			return &PathError{
				Entity: e.Ref(), Path: c.Path, Op: c.Op,
				Reason: fmt.Sprintf("segment %q is not a mapping", strings.Join(c.Path[:i+1], ".")),
			}
		}
		m = childMap
	}

	last := c.Path[len(c.Path)-1]
	switch c.Op {
	case OpSet:
		m[last] = c.Value

	case OpAppend:
		existing, ok := m[last]
		if !ok {
			m[last] = []any{c.Value}
			return nil
		}
		seq, ok := existing.([]any)
		if !ok {
			return &PathError{
				Entity: e.Ref(), Path: c.Path, Op: c.Op,
				Reason: fmt.Sprintf("value at %q is not a sequence", last),
			}
		}
		m[last] = append(seq, c.Value)

	case OpRemove:
		existing, ok := m[last]
		if !ok {
			return &PathError{
				Entity: e.Ref(), Path: c.Path, Op: c.Op,
				Reason: fmt.Sprintf("no sequence at %q", last),
			}
		}
		seq, ok := existing.([]any)
		if !ok {
			return &PathError{
				Entity: e.Ref(), Path: c.Path, Op: c.Op,
				Reason: fmt.Sprintf("value at %q is not a sequence", last),
			}
		}
		idx := -1
		for i, v := range seq {
			if reflect.DeepEqual(v, c.Value) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &PathError{
				Entity: e.Ref(), Path: c.Path, Op: c.Op,
				Reason: "value not present in sequence",
			}
		}
		m[last] = append(seq[:idx:idx], seq[idx+1:]...)
	}
	return nil
}
