// Package vocab provides the merged word table handed to the parser:
// a base table, per-module word contributions, and nouns derived from
// loaded content. Lookup is case-insensitive and synonym-aware.
package vocab

import (
	"fmt"
	"sort"
	"strings"
)

// Role identifies one grammatical role a word can play. A word may hold
// several roles at once; see RoleSet.
type Role uint8

// Grammatical roles.
const (
	Verb Role = 1 << iota
	Noun
	Adjective
	Preposition
	Article
	Direction
)

// RoleSet is a set of grammatical roles represented as a bitmask.
type RoleSet uint8

// Has reports whether the set contains role r.
func (s RoleSet) Has(r Role) bool { return s&RoleSet(r) != 0 }

// Union returns the set containing every role in s or o.
func (s RoleSet) Union(o RoleSet) RoleSet { return s | o }

// String returns the roles in a fixed order, separated by "|".
func (s RoleSet) String() string {
	names := []struct {
		role Role
		name string
	}{
		{Verb, "verb"},
		{Noun, "noun"},
		{Adjective, "adjective"},
		{Preposition, "preposition"},
		{Article, "article"},
		{Direction, "direction"},
	}
	var parts []string
	for _, n := range names {
		if s.Has(n.role) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Entry is one canonical word in the table.
type Entry struct {
	// Word is the canonical form, lowercased.
	Word string
	// Roles is the union of every role any source gave this word.
	Roles RoleSet
	// Synonyms are alternate forms resolving to this entry, in declaration order.
	Synonyms []string
	// Value is an optional associated value (e.g. a direction's vector).
	Value any
}

// Table is the merged vocabulary lookup table. It is populated during the
// load phase and only read during play.
type Table struct {
	entries  map[string]*Entry // canonical word → entry
	synonyms map[string]string // synonym → canonical word
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		entries:  make(map[string]*Entry),
		synonyms: make(map[string]string),
	}
}

// Add merges a word into the table. If the word is already present
// (directly or as a synonym of another entry), the role sets are unioned;
// multi-source contributions are additive, never a conflict.
//
// Precondition: word must be non-empty.
// Postcondition: Lookup(word) succeeds with a role set including roles.
func (t *Table) Add(word string, roles RoleSet, synonyms ...string) error {
	return t.AddWithValue(word, roles, nil, synonyms...)
}

// AddWithValue is Add with an associated value. A later non-nil value
// replaces an earlier one; a nil value never clears one.
//
// Precondition: word must be non-empty.
func (t *Table) AddWithValue(word string, roles RoleSet, value any, synonyms ...string) error {
	if word == "" {
		return fmt.Errorf("vocab: empty word")
	}
	canonical := strings.ToLower(word)
	if target, ok := t.synonyms[canonical]; ok {
		// The word was previously declared as a synonym; fold the roles
		// into its canonical entry.
		canonical = target
	}

	e, ok := t.entries[canonical]
	if !ok {
		e = &Entry{Word: canonical}
		t.entries[canonical] = e
	}
	e.Roles = e.Roles.Union(roles)
	if value != nil {
		e.Value = value
	}

	for _, syn := range synonyms {
		s := strings.ToLower(syn)
		if s == "" || s == canonical {
			continue
		}
		if existing, ok := t.synonyms[s]; ok {
			if existing != canonical {
				return fmt.Errorf("vocab: synonym %q already resolves to %q, cannot rebind to %q", s, existing, canonical)
			}
			continue
		}
		if _, ok := t.entries[s]; ok {
			return fmt.Errorf("vocab: synonym %q collides with existing word %q", s, s)
		}
		t.synonyms[s] = canonical
		e.Synonyms = append(e.Synonyms, s)
	}
	return nil
}

// Lookup finds the entry for word, resolving synonyms and ignoring case.
//
// Postcondition: Returns (entry, true) if found, or (nil, false).
func (t *Table) Lookup(word string) (*Entry, bool) {
	w := strings.ToLower(word)
	if e, ok := t.entries[w]; ok {
		return e, true
	}
	if canonical, ok := t.synonyms[w]; ok {
		return t.entries[canonical], true
	}
	return nil, false
}

// Len returns the number of canonical entries.
func (t *Table) Len() int { return len(t.entries) }

// Words returns all canonical words in sorted order.
func (t *Table) Words() []string {
	words := make([]string, 0, len(t.entries))
	for w := range t.entries {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Base returns the base word table every world starts from: articles,
// common prepositions, and the standard direction nouns.
func Base() *Table {
	t := NewTable()
	for _, a := range []string{"a", "an", "the"} {
		_ = t.Add(a, RoleSet(Article))
	}
	for _, p := range []string{"at", "in", "on", "under", "with", "to", "from", "into", "onto"} {
		_ = t.Add(p, RoleSet(Preposition))
	}
	directions := []struct {
		word string
		syns []string
	}{
		{"north", []string{"n"}},
		{"south", []string{"s"}},
		{"east", []string{"e"}},
		{"west", []string{"w"}},
		{"up", []string{"u"}},
		{"down", []string{"d"}},
	}
	for _, d := range directions {
		_ = t.Add(d.word, RoleSet(Direction|Noun), d.syns...)
	}
	return t
}
