package api

import (
	"fmt"
)

// Schema is an insertion-ordered container of descriptors owned by a flow
// or activity definition. Alternate names resolve to the same descriptor. A
// frozen schema rejects every mutation
type Schema struct {
	order  []Name
	props  map[Name]*Descriptor
	alias  map[Name]Name
	frozen bool
}

// NewSchema returns a schema holding ds, merging repeated names
func NewSchema(ds ...*Descriptor) (*Schema, error) {
	s := &Schema{
		props: map[Name]*Descriptor{},
		alias: map[Name]Name{},
	}
	for _, d := range ds {
		if err := s.Add(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get returns the descriptor registered under name or one of its alternates
func (s *Schema) Get(name Name) (*Descriptor, bool) {
	if s == nil {
		return nil, false
	}
	if primary, ok := s.alias[name]; ok {
		name = primary
	}
	d, ok := s.props[name]
	return d, ok
}

// Add registers d. A descriptor already registered under any of d's names
// is merged with d; declarations that cannot be merged are rejected with
// ErrIncompatibleProperty
func (s *Schema) Add(d *Descriptor) error {
	if s.frozen {
		return fmt.Errorf("%w: adding %q", ErrTemplateMutation, d.Name)
	}
	existing, ok := s.lookupAny(d)
	if !ok {
		s.store(d)
		return nil
	}
	merged, ok := existing.Merge(d)
	if !ok {
		return fmt.Errorf("%w: %q", ErrIncompatibleProperty, d.Name)
	}
	s.replace(existing.Name, merged)
	return nil
}

// Put registers d, replacing whatever is registered under its name
func (s *Schema) Put(d *Descriptor) error {
	if s.frozen {
		return fmt.Errorf("%w: replacing %q", ErrTemplateMutation, d.Name)
	}
	if existing, ok := s.lookupAny(d); ok {
		s.replace(existing.Name, d)
		return nil
	}
	s.store(d)
	return nil
}

// Names returns the primary names in insertion order
func (s *Schema) Names() []Name {
	if s == nil {
		return nil
	}
	res := make([]Name, len(s.order))
	copy(res, s.order)
	return res
}

// Descriptors returns the descriptors in insertion order
func (s *Schema) Descriptors() []*Descriptor {
	if s == nil {
		return nil
	}
	res := make([]*Descriptor, 0, len(s.order))
	for _, n := range s.order {
		res = append(res, s.props[n])
	}
	return res
}

// Len returns the number of descriptors
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Freeze marks the schema read-only
func (s *Schema) Freeze() *Schema {
	s.frozen = true
	return s
}

// IsFrozen reports whether the schema rejects mutation
func (s *Schema) IsFrozen() bool {
	return s != nil && s.frozen
}

// Clone returns an unfrozen copy of the schema
func (s *Schema) Clone() *Schema {
	res, _ := NewSchema()
	if s == nil {
		return res
	}
	for _, n := range s.order {
		res.store(s.props[n])
	}
	return res
}

func (s *Schema) lookupAny(d *Descriptor) (*Descriptor, bool) {
	for _, n := range d.Names() {
		if existing, ok := s.Get(n); ok {
			return existing, true
		}
	}
	return nil, false
}

func (s *Schema) store(d *Descriptor) {
	s.order = append(s.order, d.Name)
	s.props[d.Name] = d
	s.index(d)
}

func (s *Schema) replace(primary Name, d *Descriptor) {
	if primary != d.Name {
		for i, n := range s.order {
			if n == primary {
				s.order[i] = d.Name
			}
		}
		delete(s.props, primary)
		delete(s.alias, d.Name)
		s.alias[primary] = d.Name
	}
	s.props[d.Name] = d
	s.index(d)
}

func (s *Schema) index(d *Descriptor) {
	for _, alt := range d.Alternates {
		if alt != d.Name {
			s.alias[alt] = d.Name
		}
	}
}
