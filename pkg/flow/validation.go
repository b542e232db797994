package flow

import (
	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/util"
)

// Validate reports every property required at phase that has no visible
// value. Activation checks the current activity, advancing checks every
// activity up to the current one unless moving backward, and the remaining
// phases check the whole flow
func (i *Instance) Validate(
	phase api.RequiredPhase, dir api.Direction,
) *api.ValidationResult {
	return i.validate(phase, dir, i.current)
}

func (i *Instance) validate(
	phase api.RequiredPhase, dir api.Direction, target int,
) *api.ValidationResult {
	acts := i.def.Activities
	var res *api.ValidationResult
	switch phase {
	case api.PhaseActivate:
		if target >= 0 && target < len(acts) {
			res = i.validateActivity(acts[target], phase)
		}
	case api.PhaseAdvance:
		if dir == api.DirectionBackward {
			return res
		}
		for _, a := range acts[:min(target+1, len(acts))] {
			res = res.Merge(i.validateActivity(a, phase))
		}
	default:
		declared := util.Set[api.Name]{}
		for _, a := range acts {
			res = res.Merge(i.validateActivity(a, phase))
			for _, n := range a.Schema.Names() {
				declared.Add(n)
			}
		}
		for _, d := range i.def.Schema.Descriptors() {
			if declared.Contains(d.Name) {
				continue
			}
			res = res.Merge(i.check(nil, d, phase))
		}
	}
	return res
}

func (i *Instance) validateActivity(
	a *api.ActivityDefinition, phase api.RequiredPhase,
) *api.ValidationResult {
	var res *api.ValidationResult
	for _, d := range a.Schema.Descriptors() {
		res = res.Merge(i.check(a, d, phase))
	}
	return res
}

func (i *Instance) check(
	a *api.ActivityDefinition, declared *api.Descriptor,
	phase api.RequiredPhase,
) *api.ValidationResult {
	required := declared.Phase
	if o, ok := i.overrides[declared.Name]; ok && o.Phase != "" {
		required = o.Phase
	}
	if required != phase {
		return nil
	}
	d, ok := i.descriptor(a, declared.Name)
	if !ok || d.IsAutoCreate() {
		return nil
	}
	if has, err := i.hasValue(d, a); err == nil && has {
		return nil
	}
	f := api.Failure{Property: declared.Name, Phase: phase}
	if a != nil {
		f.Activity = a.Name
	}
	return api.NewValidationResult(f)
}
