package annotations

import (
	"slices"

	"github.com/km-arc/go-spf/framework/reflection"
)

// Set groups the annotations found on one member by name. Parameter lists
// keep source order, duplicates included. A Set never changes after the
// engine builds it; accessors hand out copies.
type Set struct {
	entries map[string][][]string
	names   []string

	// Subject is the member the set describes; nil for an empty set.
	Subject *reflection.Member
}

// NewSet builds a set from tags in the order given.
func NewSet(subject *reflection.Member, tags ...reflection.Tag) *Set {
	s := &Set{entries: make(map[string][][]string), Subject: subject}
	for _, tag := range tags {
		if _, ok := s.entries[tag.Name]; !ok {
			s.names = append(s.names, tag.Name)
		}
		s.entries[tag.Name] = append(s.entries[tag.Name], slices.Clone(tag.Params))
	}
	return s
}

// Has reports whether at least one annotation called name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Get returns every parameter list recorded for name, or nil.
func (s *Set) Get(name string) [][]string {
	lists := s.entries[name]
	if lists == nil {
		return nil
	}
	out := make([][]string, len(lists))
	for i, params := range lists {
		out[i] = slices.Clone(params)
	}
	return out
}

// First returns the parameters of the first annotation called name.
func (s *Set) First(name string) ([]string, bool) {
	lists := s.entries[name]
	if len(lists) == 0 {
		return nil, false
	}
	return slices.Clone(lists[0]), true
}

// Names lists annotation names in order of first appearance.
func (s *Set) Names() []string { return slices.Clone(s.names) }

// All returns a copy of the whole set.
func (s *Set) All() map[string][][]string {
	out := make(map[string][][]string, len(s.entries))
	for name := range s.entries {
		out[name] = s.Get(name)
	}
	return out
}

// Len counts annotations, not names.
func (s *Set) Len() int {
	n := 0
	for _, lists := range s.entries {
		n += len(lists)
	}
	return n
}

func (s *Set) Empty() bool { return len(s.entries) == 0 }
