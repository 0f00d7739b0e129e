package engine

import (
	"fmt"
	"strings"

	"github.com/jedharris/weft/internal/dispatch"
	"github.com/jedharris/weft/internal/vocab"
	"github.com/jedharris/weft/internal/world"
)

// ParseInput turns one line of player input into a structured command.
// This is the only place raw text is interpreted; everything below the
// engine works on dispatch.Command values.
//
// Grammar: [verb|direction] [object words] [preposition object words].
// Articles are dropped; synonyms resolve through the vocabulary; a bare
// direction becomes "go" with the direction as qualifier.
func (e *Engine) ParseInput(actor world.ActorID, line string) (*dispatch.Command, error) {
	var tokens []*vocab.Entry
	for _, raw := range strings.Fields(strings.ToLower(line)) {
		entry, ok := e.words.Lookup(raw)
		if !ok {
			return nil, fmt.Errorf("I don't know the word %q.", raw)
		}
		if entry.Roles.Has(vocab.Article) {
			continue
		}
		tokens = append(tokens, entry)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("Say something.")
	}

	cmd := &dispatch.Command{Actor: actor}
	head, rest := tokens[0], tokens[1:]
	switch {
	case head.Roles.Has(vocab.Direction):
		cmd.Verb = "go"
		cmd.Qualifier = head.Word
	case head.Roles.Has(vocab.Verb):
		cmd.Verb = head.Word
	default:
		return nil, fmt.Errorf("%q is not a verb.", head.Word)
	}

	// A direction right after the verb is a qualifier, not an object.
	if len(rest) > 0 && rest[0].Roles.Has(vocab.Direction) {
		cmd.Qualifier = rest[0].Word
		rest = rest[1:]
	}

	var direct, indirect []*vocab.Entry
	target := &direct
	for _, tok := range rest {
		if tok.Roles.Has(vocab.Preposition) && cmd.Preposition == "" {
			cmd.Preposition = tok.Word
			target = &indirect
			continue
		}
		if !tok.Roles.Has(vocab.Noun) && !tok.Roles.Has(vocab.Adjective) {
			return nil, fmt.Errorf("I did not expect %q there.", tok.Word)
		}
		*target = append(*target, tok)
	}

	if len(direct) > 0 {
		ref, err := e.resolveObject(direct)
		if err != nil {
			return nil, err
		}
		cmd.DirectObject = ref
	}
	if len(indirect) > 0 {
		ref, err := e.resolveObject(indirect)
		if err != nil {
			return nil, err
		}
		cmd.IndirectObject = ref
	}
	return cmd, nil
}

// resolveObject matches an adjective*-noun phrase against entity display
// names. Every phrase word must appear in the name.
func (e *Engine) resolveObject(phrase []*vocab.Entry) (world.Ref, error) {
	words := make([]string, len(phrase))
	for i, p := range phrase {
		words[i] = p.Word
	}
	spoken := strings.Join(words, " ")

	var matches []world.Ref
	for _, kind := range []world.Kind{world.KindItem, world.KindActor, world.KindPart, world.KindPlace} {
		for _, ent := range e.state.All(kind) {
			if nameMatches(ent.Name, words) {
				matches = append(matches, ent.Ref())
			}
		}
	}
	switch len(matches) {
	case 0:
		return world.Ref{}, fmt.Errorf("You see no %s here.", spoken)
	case 1:
		return matches[0], nil
	default:
		return world.Ref{}, fmt.Errorf("Which %s do you mean?", spoken)
	}
}

func nameMatches(name string, words []string) bool {
	fields := strings.Fields(strings.ToLower(name))
	for _, w := range words {
		found := false
		for _, f := range fields {
			if f == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
