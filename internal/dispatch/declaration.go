package dispatch

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// EventNamePrefix is the naming convention for entity events. Every
// declared event name, and every script function intended as an event
// reaction, starts with this prefix; the load-time lint pass flags
// convention matches that were never registered.
const EventNamePrefix = "on_"

// VerbBinding binds a verb word to its primary event and, optionally, a
// fallback event tried when the primary yields no reaction.
type VerbBinding struct {
	// Word is the verb word.
	Word string `yaml:"word"`
	// Event is the primary event name.
	Event string `yaml:"event"`
	// Fallback is the optional fallback event name.
	Fallback string `yaml:"fallback"`
	// ObjectRequired marks verbs that need a direct object.
	ObjectRequired bool `yaml:"object_required"`
	// Synonyms are alternate words for this verb.
	Synonyms []string `yaml:"synonyms"`
}

// EventBinding is an explicit event declaration.
type EventBinding struct {
	// Name is the event name (must carry EventNamePrefix).
	Name string `yaml:"name"`
	// Hook is the optional engine hook this event claims.
	Hook string `yaml:"hook"`
	// Description is optional human-readable documentation.
	Description string `yaml:"description"`
}

// WordContributions are a module's additions to the vocabulary.
type WordContributions struct {
	Nouns      []string `yaml:"nouns"`
	Adjectives []string `yaml:"adjectives"`
}

// Declaration is a module's parsed declaration body.
type Declaration struct {
	// Name is the module name.
	Name string `yaml:"name"`
	// Description is optional documentation.
	Description string `yaml:"description"`
	// Verbs are the module's verb bindings.
	Verbs []VerbBinding `yaml:"verbs"`
	// Events are the module's explicit event declarations.
	Events []EventBinding `yaml:"events"`
	// Words are the module's vocabulary contributions.
	Words WordContributions `yaml:"words"`
}

// yamlDeclarationFile is the top-level structure of a module.yaml file.
type yamlDeclarationFile struct {
	Module Declaration `yaml:"module"`
}

// ParseDeclaration parses and validates a module.yaml body.
//
// Precondition: data must be valid YAML.
// Postcondition: Returns a validated Declaration, or field-specific errors
// naming the offending module.
func ParseDeclaration(data []byte) (Declaration, error) {
	var file yamlDeclarationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Declaration{}, fmt.Errorf("parsing module declaration: %w", err)
	}
	decl := file.Module
	if err := decl.Validate(); err != nil {
		return Declaration{}, err
	}
	return decl, nil
}

// Validate checks the declaration schema.
//
// Postcondition: Returns nil, or an error listing every field violation.
func (d Declaration) Validate() error {
	name := d.Name
	if name == "" {
		name = "(unnamed)"
	}
	var errs []string

	if d.Name == "" {
		errs = append(errs, "module name must not be empty")
	}
	seenVerbs := make(map[string]bool)
	for i, v := range d.Verbs {
		if v.Word == "" {
			errs = append(errs, fmt.Sprintf("verbs[%d]: word must not be empty", i))
		}
		if v.Event == "" {
			errs = append(errs, fmt.Sprintf("verbs[%d] %q: event must not be empty", i, v.Word))
		} else if !strings.HasPrefix(v.Event, EventNamePrefix) {
			errs = append(errs, fmt.Sprintf("verbs[%d] %q: event %q must start with %q", i, v.Word, v.Event, EventNamePrefix))
		}
		if v.Fallback != "" && !strings.HasPrefix(v.Fallback, EventNamePrefix) {
			errs = append(errs, fmt.Sprintf("verbs[%d] %q: fallback %q must start with %q", i, v.Word, v.Fallback, EventNamePrefix))
		}
		if v.Fallback != "" && v.Fallback == v.Event {
			errs = append(errs, fmt.Sprintf("verbs[%d] %q: fallback must differ from event %q", i, v.Word, v.Event))
		}
		if v.Word != "" {
			if seenVerbs[v.Word] {
				errs = append(errs, fmt.Sprintf("verbs[%d]: duplicate word %q", i, v.Word))
			}
			seenVerbs[v.Word] = true
		}
	}
	seenEvents := make(map[string]bool)
	for i, e := range d.Events {
		if e.Name == "" {
			errs = append(errs, fmt.Sprintf("events[%d]: name must not be empty", i))
			continue
		}
		if !strings.HasPrefix(e.Name, EventNamePrefix) {
			errs = append(errs, fmt.Sprintf("events[%d] %q: name must start with %q", i, e.Name, EventNamePrefix))
		}
		if seenEvents[e.Name] {
			errs = append(errs, fmt.Sprintf("events[%d]: duplicate event %q", i, e.Name))
		}
		seenEvents[e.Name] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("module %s: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

// Module is one loaded module: its declaration, computed tier, and the
// handler and behavior implementations its scripts (or Go code) provide.
type Module struct {
	// Name is the module name from the declaration.
	Name string
	// Tier is the precedence tier computed from the module's position.
	// Immutable once assigned.
	Tier int
	// Dir is the module's directory, for script loading. May be empty for
	// modules constructed in code.
	Dir string
	// Declaration is the validated declaration body.
	Declaration Declaration
	// Handlers maps verb words to command handlers.
	Handlers map[string]HandlerFunc
	// Behaviors maps behavior names to their event bundles.
	Behaviors map[string]Behavior
	// EventFuncNames lists every script function name matching the event
	// naming convention, for the load-time lint pass.
	EventFuncNames []string
}
