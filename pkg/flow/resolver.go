package flow

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
	"github.com/kode4food/argyll/wizard/pkg/store"
)

// bound pairs an effective descriptor with the activity it resolves in. A
// nil activity means the flow level
type bound struct {
	act *api.ActivityDefinition
	d   *api.Descriptor
}

// SearchList returns the namespaces searched for d's value, most specific
// first. Usages that accept outside values also search the activity type
// (activity local only), the flow type, and the global namespace
func (i *Instance) SearchList(
	d *api.Descriptor, a *api.ActivityDefinition,
) ([]string, error) {
	var res []string
	switch d.Scope {
	case api.ScopeActivityLocal:
		if a == nil {
			return nil, fmt.Errorf("%w: %q", api.ErrNoActivity, d.Name)
		}
		res = append(res, i.activityNamespace(a))
		if d.Usage.IsExternallySettable() && a.Type != "" {
			res = append(res, a.Type)
		}
	case api.ScopeFlowLocal, api.ScopeRequestFlowLocal:
		res = append(res, i.lookupKey)
	case api.ScopeGlobal:
		res = append(res, store.Global)
	default:
		return nil, fmt.Errorf("%w: %q", api.ErrUnknownScope, d.Scope)
	}
	if d.Usage.IsExternallySettable() {
		for _, ns := range []string{i.def.Name, store.Global} {
			if !slices.Contains(res, ns) {
				res = append(res, ns)
			}
		}
	}
	return res, nil
}

// WriteNamespace returns the namespace d's value is written to
func (i *Instance) WriteNamespace(
	d *api.Descriptor, a *api.ActivityDefinition,
) (string, error) {
	search, err := i.SearchList(d, a)
	if err != nil {
		return "", err
	}
	return search[0], nil
}

// InitializeProperty locates an outside value for d and settles it into
// d's write namespace. Usages that clean on initialization remove every
// value they find. When nothing usable is found the static initial value
// is used, and an initialize usage falls back to its value provider
func (i *Instance) InitializeProperty(
	d *api.Descriptor, a *api.ActivityDefinition,
) error {
	search, err := i.SearchList(d, a)
	if err != nil {
		return err
	}

	var found string
	var foundKey store.Key
	var ok bool
	clean := d.Usage.CleansOnInitialization()
search:
	for _, ns := range search {
		for _, n := range d.Names() {
			k := store.NewKey(ns, n)
			raw, has := i.values.Get(k)
			if !has {
				continue
			}
			if !ok {
				found, foundKey, ok = raw, k, true
			}
			if clean {
				i.values.Remove(k)
				continue
			}
			break search
		}
	}

	value, has := found, ok
	if !ok || !d.Usage.IsExternallySettable() {
		value, has, err = i.initialValue(d, a)
		if err != nil {
			return err
		}
	}

	target := store.NewKey(search[0], d.Name)
	if ok && has && value != found && !d.Usage.IsExternallySettable() &&
		foundKey != target {
		slog.Warn("Outside value replaced",
			log.FlowKey(i.lookupKey),
			log.Property(d.Name),
			log.Namespace(foundKey.Namespace))
	}
	if !has {
		i.values.Remove(target)
		return nil
	}
	i.values.Set(target, value)
	return nil
}

func (i *Instance) initialValue(
	d *api.Descriptor, a *api.ActivityDefinition,
) (string, bool, error) {
	if d.Initial != "" {
		return d.Initial, true, nil
	}
	if d.Usage != api.UsageInitialize || d.Provider == nil {
		return "", false, nil
	}
	v, err := d.Provider.Get(i.contextFor(a), d)
	if err != nil || v == nil {
		return "", false, err
	}
	raw, err := i.codec.Serialize(d, v)
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

func (i *Instance) activityNamespace(a *api.ActivityDefinition) string {
	return i.lookupKey + "." + a.Name
}

// descriptor returns the effective descriptor of name as seen from a
func (i *Instance) descriptor(
	a *api.ActivityDefinition, name api.Name,
) (*api.Descriptor, bool) {
	d, ok := i.def.Descriptor(a, name)
	if !ok {
		return nil, false
	}
	return i.effective(d), true
}

func (i *Instance) effective(d *api.Descriptor) *api.Descriptor {
	if o, ok := i.overrides[d.Name]; ok {
		return d.Apply(o)
	}
	return d
}

// properties returns every property the instance owns: the flow-wide
// schema followed by each activity's local declarations
func (i *Instance) properties() []bound {
	var res []bound
	for _, d := range i.def.Schema.Descriptors() {
		res = append(res, bound{d: i.effective(d)})
	}
	for _, a := range i.def.Activities {
		for _, d := range a.Schema.Descriptors() {
			if d.Scope == api.ScopeActivityLocal {
				res = append(res, bound{act: a, d: i.effective(d)})
			}
		}
	}
	return res
}
