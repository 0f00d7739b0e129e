package dispatch

import (
	"path"
	"path/filepath"
	"strings"
)

// TierForPath computes a module's precedence tier from its directory
// position under the modules root. Top-level modules are tier 1, the
// highest precedence; each level of nesting adds one.
//
// Tier assignment is pure: it depends only on the relative path, never on
// load order or declaration content.
//
// Precondition: relPath must be a non-empty slash- or OS-separated path
// relative to the modules root (e.g. "std" or "std/extra").
func TierForPath(relPath string) int {
	p := path.Clean(filepath.ToSlash(relPath))
	if p == "." || p == "" {
		return 1
	}
	return strings.Count(p, "/") + 1
}
