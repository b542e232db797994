package api

import (
	"slices"
)

type (
	// Descriptor is the declarative description of one named property.
	// Descriptors built by the builder package are complete and treated as
	// immutable: every customization returns a new Descriptor
	Descriptor struct {
		Name         Name
		Alternates   []Name
		Phase        RequiredPhase
		Scope        Scope
		Usage        Usage
		Access       AccessRestriction
		Shape        *Shape
		AutoCreate   *bool
		SaveBack     *bool
		Initial      string
		Provider     ValueProvider
		Persister    Persister
		Dependencies []Name
	}

	// Override is an instance-local patch applied over a definition
	// Descriptor. Empty fields leave the definition's value in place
	Override struct {
		Scope     Scope
		Usage     Usage
		Phase     RequiredPhase
		Access    AccessRestriction
		Initial   *string
		Provider  ValueProvider
		Persister Persister
	}
)

// Clone returns a copy that shares no slices with the receiver
func (d *Descriptor) Clone() *Descriptor {
	res := *d
	res.Alternates = slices.Clone(d.Alternates)
	res.Dependencies = slices.Clone(d.Dependencies)
	return &res
}

// Names returns the primary name followed by the alternates
func (d *Descriptor) Names() []Name {
	return append([]Name{d.Name}, d.Alternates...)
}

// HasName reports whether name is the primary or an alternate name
func (d *Descriptor) HasName(name Name) bool {
	return d.Name == name || slices.Contains(d.Alternates, name)
}

// IsAutoCreate reports whether a missing value may be created from the
// shape's zero value
func (d *Descriptor) IsAutoCreate() bool {
	return d.AutoCreate != nil && *d.AutoCreate
}

// IsSaveBack reports whether in-place changes to the value are written
// back to the store
func (d *Descriptor) IsSaveBack() bool {
	return d.SaveBack != nil && *d.SaveBack
}

// DependsOn reports whether a change to name invalidates this property
func (d *Descriptor) DependsOn(name Name) bool {
	return slices.Contains(d.Dependencies, name)
}

// WithScopeAndUsage returns a copy with the given scope and usage
func (d *Descriptor) WithScopeAndUsage(s Scope, u Usage) *Descriptor {
	res := d.Clone()
	res.Scope = s
	res.Usage = u
	res.Access = DefaultAccess(u)
	if u.IsReadOnly() {
		res.Persister = nil
	}
	return res
}

// Apply returns the effective descriptor produced by patching the receiver
// with o. The receiver is never modified
func (d *Descriptor) Apply(o *Override) *Descriptor {
	res := d.Clone()
	if o == nil {
		return res
	}
	if o.Scope != "" {
		res.Scope = o.Scope
	}
	if o.Usage != "" {
		res.Usage = o.Usage
		if o.Access == "" {
			res.Access = DefaultAccess(o.Usage)
		}
	}
	if o.Phase != "" {
		res.Phase = o.Phase
	}
	if o.Access != "" {
		res.Access = o.Access
	}
	if o.Initial != nil {
		res.Initial = *o.Initial
	}
	if o.Provider != nil {
		res.Provider = o.Provider
	}
	if o.Persister != nil && !res.Usage.IsReadOnly() {
		res.Persister = o.Persister
	}
	return res
}

// Validate checks the scope/usage pairing, the shape, and that read-only
// usages carry no persister
func (d *Descriptor) Validate() error {
	if err := d.Scope.CheckUsage(d.Usage); err != nil {
		return err
	}
	if err := d.Shape.Validate(); err != nil {
		return err
	}
	if d.Persister != nil && d.Usage.IsReadOnly() {
		return ErrReadOnlyPersister
	}
	return nil
}
