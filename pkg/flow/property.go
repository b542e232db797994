package flow

import (
	"fmt"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/store"
	"github.com/kode4food/argyll/wizard/pkg/util"
)

// Get returns the typed value of a property on behalf of a caller outside
// the flow, as seen from the current activity. Properties whose access
// restriction forbids reading fail with ErrAccessDenied
func (i *Instance) Get(name api.Name) (any, bool, error) {
	a, _ := i.CurrentActivity()
	d, err := i.mustDescriptor(a, name)
	if err != nil {
		return nil, false, err
	}
	if !d.Access.CanRead() {
		return nil, false, fmt.Errorf("%w: reading %q", api.ErrAccessDenied,
			name)
	}
	return i.value(d, a)
}

// Set stores a property value on behalf of a caller outside the flow. A nil
// value removes the property
func (i *Instance) Set(name api.Name, value any) error {
	a, _ := i.CurrentActivity()
	d, err := i.mustDescriptor(a, name)
	if err != nil {
		return err
	}
	if !d.Access.CanWrite() {
		return fmt.Errorf("%w: writing %q", api.ErrAccessDenied, name)
	}
	return i.assign(d, a, value)
}

// SetRaw stores an already serialized value on behalf of a caller outside
// the flow, rejecting values the codec cannot decode
func (i *Instance) SetRaw(name api.Name, raw string) error {
	a, _ := i.CurrentActivity()
	d, err := i.mustDescriptor(a, name)
	if err != nil {
		return err
	}
	if !d.Access.CanWrite() {
		return fmt.Errorf("%w: writing %q", api.ErrAccessDenied, name)
	}
	if !i.codec.IsDeserializable(d, raw) {
		return fmt.Errorf("%w: %q", api.ErrNotDeserializable, name)
	}
	ns, err := i.WriteNamespace(d, a)
	if err != nil {
		return err
	}
	i.values.Set(store.NewKey(ns, d.Name), raw)
	i.invalidate(d, util.Set[api.Name]{})
	return nil
}

// Preset stores an initial value ahead of initialization, ignoring access
// restrictions. It is how a session seeds a flow it starts
func (i *Instance) Preset(name api.Name, value any) error {
	d, err := i.mustDescriptor(nil, name)
	if err != nil {
		return err
	}
	return i.assign(d, nil, value)
}

// GetAs returns a property value converted to T
func GetAs[T any](i *Instance, name api.Name) (T, error) {
	var zero T
	v, ok, err := i.Get(name)
	if err != nil || !ok {
		return zero, err
	}
	res, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T", api.ErrNotDeserializable,
			name, v)
	}
	return res, nil
}

func (i *Instance) mustDescriptor(
	a *api.ActivityDefinition, name api.Name,
) (*api.Descriptor, error) {
	d, ok := i.descriptor(a, name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", api.ErrPropertyNotFound, name)
	}
	return d, nil
}

// property is the unrestricted read used by activity contexts
func (i *Instance) property(
	a *api.ActivityDefinition, name api.Name,
) (any, bool, error) {
	d, err := i.mustDescriptor(a, name)
	if err != nil {
		return nil, false, err
	}
	return i.value(d, a)
}

func (i *Instance) setProperty(
	a *api.ActivityDefinition, name api.Name, value any,
) error {
	d, err := i.mustDescriptor(a, name)
	if err != nil {
		return err
	}
	return i.assign(d, a, value)
}

// value returns the first visible value of d, decoding through the cache.
// Missing values come from the provider, or from the shape's zero value
// when the property auto-creates
func (i *Instance) value(
	d *api.Descriptor, a *api.ActivityDefinition,
) (any, bool, error) {
	k, raw, ok, err := i.lookup(d, a)
	if err != nil {
		return nil, false, err
	}
	if ok {
		if v, ok := i.values.Cached(k); ok {
			return v, true, nil
		}
		v, err := i.codec.Deserialize(d, raw)
		if err != nil {
			return nil, false, err
		}
		i.values.Cache(k, v)
		return v, true, nil
	}

	var v any
	switch {
	case d.Provider != nil:
		v, err = d.Provider.Get(i.contextFor(a), d)
	case d.IsAutoCreate():
		v = d.Shape.ZeroValue()
	}
	if err != nil || v == nil {
		return nil, false, err
	}
	if err := i.write(d, a, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// lookup finds the first stored value of d across its search list and
// names
func (i *Instance) lookup(
	d *api.Descriptor, a *api.ActivityDefinition,
) (store.Key, string, bool, error) {
	search, err := i.SearchList(d, a)
	if err != nil {
		return store.Key{}, "", false, err
	}
	for _, ns := range search {
		for _, n := range d.Names() {
			k := store.NewKey(ns, n)
			if raw, ok := i.values.Get(k); ok {
				return k, raw, true, nil
			}
		}
	}
	return store.Key{}, "", false, nil
}

func (i *Instance) hasValue(
	d *api.Descriptor, a *api.ActivityDefinition,
) (bool, error) {
	_, _, ok, err := i.lookup(d, a)
	return ok, err
}

func (i *Instance) assign(
	d *api.Descriptor, a *api.ActivityDefinition, value any,
) error {
	if err := i.write(d, a, value); err != nil {
		return err
	}
	i.invalidate(d, util.Set[api.Name]{})
	return nil
}

func (i *Instance) write(
	d *api.Descriptor, a *api.ActivityDefinition, value any,
) error {
	ns, err := i.WriteNamespace(d, a)
	if err != nil {
		return err
	}
	k := store.NewKey(ns, d.Name)
	if value == nil {
		i.values.Remove(k)
		return nil
	}
	raw, err := i.codec.Serialize(d, value)
	if err != nil {
		return err
	}
	i.values.Set(k, raw)
	i.values.Cache(k, value)
	return nil
}

// invalidate drops the cached values of every property depending on
// changed, transitively. Dependents computed by a provider also lose their
// stored value so that the next read recomputes it
func (i *Instance) invalidate(
	changed *api.Descriptor, seen util.Set[api.Name],
) {
	seen.Add(changed.Name)
	for _, b := range i.properties() {
		if seen.Contains(b.d.Name) || !dependsOnAny(b.d, changed.Names()) {
			continue
		}
		search, err := i.SearchList(b.d, b.act)
		if err != nil {
			continue
		}
		for _, ns := range search {
			for _, n := range b.d.Names() {
				i.values.Uncache(store.NewKey(ns, n))
			}
		}
		if b.d.Provider != nil {
			i.values.Remove(store.NewKey(search[0], b.d.Name))
		}
		i.invalidate(b.d, seen)
	}
}

func dependsOnAny(d *api.Descriptor, names []api.Name) bool {
	for _, n := range names {
		if d.DependsOn(n) {
			return true
		}
	}
	return false
}
