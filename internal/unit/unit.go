// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultSuffix is the file suffix of shell library units.
const DefaultSuffix = ".sh"

type (
	// ID is the canonical identifier of a unit (e.g., "lib/strings").
	ID string

	// Unit describes one discovered source file. The zero value is not useful;
	// use New.
	Unit struct {
		root    string
		base    string
		relPath string
		id      ID
	}
)

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// New creates a Unit for the file at relPath (relative to base, which is itself
// relative to root). The suffix is stripped from the canonical identifier.
func New(root, base, relPath, suffix string) Unit {
	rel := filepath.ToSlash(filepath.Clean(relPath))
	return Unit{
		root:    filepath.Clean(root),
		base:    filepath.Clean(base),
		relPath: rel,
		id:      ID(strings.TrimSuffix(rel, suffix)),
	}
}

// ID returns the canonical identifier.
func (u Unit) ID() ID {
	return u.id
}

// Root returns the absolute base directory the unit was discovered under.
func (u Unit) Root() string {
	return u.root
}

// Base returns the search path (relative to Root) the unit was found in.
func (u Unit) Base() string {
	return u.base
}

// RelPath returns the slash-separated file path relative to Base, suffix included.
func (u Unit) RelPath() string {
	return u.relPath
}

// Dir returns the absolute search directory of the unit (Root joined with Base).
func (u Unit) Dir() string {
	return filepath.Join(u.root, u.base)
}

// Path returns the absolute path of the unit file.
func (u Unit) Path() string {
	return filepath.Join(u.Dir(), filepath.FromSlash(u.relPath))
}

// Name returns the last element of the identifier.
func (u Unit) Name() string {
	return path.Base(string(u.id))
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u.id)
}
