package api

import (
	"reflect"
	"slices"
)

// IsMergeable reports whether two descriptors of the same name can be
// combined into one: compatible shapes, at most one distinct value
// provider, equal scopes, and usages reachable from one another in the
// usage lift order
func (d *Descriptor) IsMergeable(other *Descriptor) bool {
	if _, ok := MergeShapes(d.Shape, other.Shape); !ok {
		return false
	}
	if d.Provider != nil && other.Provider != nil &&
		!SameRef(d.Provider, other.Provider) {
		return false
	}
	if d.Scope != "" && other.Scope != "" && d.Scope != other.Scope {
		return false
	}
	return CompatibleUsages(d.Usage, other.Usage)
}

// Merge combines the receiver with other. Fields already set on the
// receiver win and other fills the gaps, except that names and
// dependencies are unioned and the usage resolves to the more restrictive
// of the two. The second result is false when the descriptors are not
// mergeable, in which case the receiver is returned unchanged
func (d *Descriptor) Merge(other *Descriptor) (*Descriptor, bool) {
	if !d.IsMergeable(other) {
		return d, false
	}

	res := d.Clone()
	res.Shape, _ = MergeShapes(d.Shape, other.Shape)
	res.Alternates = slices.DeleteFunc(
		unionNames(d.Alternates, other.Alternates, []Name{other.Name}),
		func(n Name) bool { return n == d.Name },
	)
	if len(res.Alternates) == 0 {
		res.Alternates = nil
	}
	res.Dependencies = unionNames(d.Dependencies, other.Dependencies)
	res.Usage = SurvivingUsage(d.Usage, other.Usage)

	if res.Phase == "" {
		res.Phase = other.Phase
	}
	if res.Scope == "" {
		res.Scope = other.Scope
	}
	if res.Usage != d.Usage && res.Usage != "" {
		res.Access = DefaultAccess(res.Usage)
	}
	if res.Access == "" {
		res.Access = other.Access
	}
	if res.AutoCreate == nil {
		res.AutoCreate = other.AutoCreate
	}
	if res.SaveBack == nil {
		res.SaveBack = other.SaveBack
	}
	if res.Initial == "" {
		res.Initial = other.Initial
	}
	if res.Provider == nil {
		res.Provider = other.Provider
	}
	if res.Persister == nil {
		res.Persister = other.Persister
	}
	if res.Usage.IsReadOnly() {
		res.Persister = nil
	}
	return res, true
}

// SameRef reports whether a and b hold the same reference. Values of
// non-comparable dynamic types are never the same reference
func SameRef(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
