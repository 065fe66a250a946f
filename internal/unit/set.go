// SPDX-License-Identifier: MPL-2.0

package unit

import "slices"

// Set is an ordered collection of units. Insertion order is preserved and
// identifiers are unique: adding a unit whose identifier is already present is
// rejected.
type Set struct {
	units []Unit
	index map[ID]int
}

// NewSet creates a set from the given units, dropping later duplicates.
func NewSet(units ...Unit) *Set {
	s := &Set{index: make(map[ID]int, len(units))}
	for _, u := range units {
		s.Add(u)
	}
	return s
}

// Add appends u unless a unit with the same identifier is present.
// It reports whether the unit was added.
func (s *Set) Add(u Unit) bool {
	if s.index == nil {
		s.index = make(map[ID]int)
	}
	if _, ok := s.index[u.ID()]; ok {
		return false
	}
	s.index[u.ID()] = len(s.units)
	s.units = append(s.units, u)
	return true
}

// Len returns the number of units.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.units)
}

// Units returns a copy of the units in order.
func (s *Set) Units() []Unit {
	if s == nil {
		return nil
	}
	return slices.Clone(s.units)
}

// IDs returns the identifiers in order.
func (s *Set) IDs() []ID {
	if s == nil {
		return nil
	}
	ids := make([]ID, len(s.units))
	for i, u := range s.units {
		ids[i] = u.ID()
	}
	return ids
}

// Get looks up a unit by identifier.
func (s *Set) Get(id ID) (Unit, bool) {
	if s == nil {
		return Unit{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Unit{}, false
	}
	return s.units[i], true
}

// Contains reports whether a unit with the identifier is present.
func (s *Set) Contains(id ID) bool {
	_, ok := s.Get(id)
	return ok
}

// Exclude returns a new set without the units matching any of the patterns.
// The receiver is left untouched.
func (s *Set) Exclude(patterns ...Pattern) *Set {
	out := NewSet()
	for _, u := range s.Units() {
		if !matchesAny(u.ID(), patterns) {
			out.Add(u)
		}
	}
	return out
}

func matchesAny(id ID, patterns []Pattern) bool {
	for _, p := range patterns {
		if p.Match(id) {
			return true
		}
	}
	return false
}
