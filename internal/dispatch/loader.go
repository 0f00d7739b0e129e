package dispatch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// DeclarationFileName is the file each module directory must contain.
const DeclarationFileName = "module.yaml"

// DiscoverModules walks the modules root, parses every module declaration,
// and assigns each module its tier from directory depth. Scripts are not
// loaded here; the scripting manager attaches implementations afterward
// using Module.Dir.
//
// Declaration problems across all modules are collected and returned
// together rather than stopping at the first.
//
// Precondition: root must be a readable directory.
// Postcondition: Returns every well-formed module, or the combined
// diagnostics when any declaration is malformed.
func DiscoverModules(root string) ([]*Module, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("modules root %q: %w", root, err)
	}

	var (
		modules []*Module
		diags   error
		byName  = make(map[string]string) // module name → dir
	)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != DeclarationFileName {
			return nil
		}

		dir := filepath.Dir(path)
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return err
		}
		if rel == "." {
			diags = multierr.Append(diags, fmt.Errorf(
				"%s at the modules root itself: modules must live in their own directory", DeclarationFileName))
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		decl, err := ParseDeclaration(data)
		if err != nil {
			diags = multierr.Append(diags, fmt.Errorf("%s: %w", rel, err))
			return nil
		}
		if prev, ok := byName[decl.Name]; ok {
			diags = multierr.Append(diags, fmt.Errorf(
				"module name %q declared by both %s and %s", decl.Name, prev, rel))
			return nil
		}
		byName[decl.Name] = rel

		modules = append(modules, &Module{
			Name:        decl.Name,
			Tier:        TierForPath(rel),
			Dir:         dir,
			Declaration: decl,
			Handlers:    make(map[string]HandlerFunc),
			Behaviors:   make(map[string]Behavior),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking modules root %q: %w", root, walkErr)
	}
	if diags != nil {
		return nil, diags
	}
	return modules, nil
}
