package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
	"github.com/kode4food/argyll/wizard/pkg/store"
	"github.com/kode4food/argyll/wizard/pkg/util"
)

// Complete moves the flow to a terminal state. Success first requires the
// finish and saveChanges properties of the whole flow and runs every
// persister and save hook; a failed requirement leaves the state as it
// was. Once terminal, the finish hooks choose a follow-on flow and the
// session decides where the caller goes next. Completing a completed flow
// does nothing
func (i *Instance) Complete(
	ctx context.Context, target api.LifecycleState,
) error {
	if i.IsCompleted() {
		return nil
	}
	if !target.IsTerminal() || !i.state.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", api.ErrInvalidTransition, i.state,
			target)
	}

	if target.VerifiesValues() {
		res := i.validate(api.PhaseFinish, api.DirectionForward, i.current).
			Merge(i.validate(
				api.PhaseSaveChanges, api.DirectionForward, i.current,
			))
		if err := res.Err(); err != nil {
			return err
		}
		if err := i.saveChanges(ctx); err != nil {
			return err
		}
		i.copyBack()
	}

	if err := i.transition(target); err != nil {
		return err
	}
	if err := i.finish(target); err != nil {
		return err
	}
	i.values.ClearCache()

	if i.handoff == nil {
		i.page = i.Page()
		return nil
	}
	page, err := i.handoff.Completed(ctx, i)
	if err != nil {
		return err
	}
	i.page = page
	return nil
}

// Cancel completes the flow as canceled
func (i *Instance) Cancel(ctx context.Context) error {
	return i.Complete(ctx, api.StateCanceled)
}

// Fail completes the flow as failed
func (i *Instance) Fail(ctx context.Context) error {
	return i.Complete(ctx, api.StateFailed)
}

// saveChanges runs, activity by activity, the persisters of the
// activity's properties and then the activity's save hook. A persister
// shared by several activities runs once
func (i *Instance) saveChanges(ctx context.Context) error {
	saved := util.Set[api.Name]{}
	persist := func(a *api.ActivityDefinition, d *api.Descriptor) error {
		if d.Persister == nil || saved.Contains(d.Name) {
			return nil
		}
		saved.Add(d.Name)
		v, err := d.Persister.SaveChanges(ctx, i.contextFor(a), d)
		if err != nil {
			return err
		}
		if v != nil {
			return i.assign(d, a, v)
		}
		return nil
	}

	for _, a := range i.def.Activities {
		for _, n := range a.Schema.Names() {
			d, ok := i.descriptor(a, n)
			if !ok {
				continue
			}
			if err := persist(a, d); err != nil {
				return err
			}
		}
		if a.Hooks.SaveChanges != nil {
			if err := a.Hooks.SaveChanges(ctx, i.contextFor(a)); err != nil {
				return err
			}
		}
	}
	for _, d := range i.def.Schema.Descriptors() {
		if err := persist(nil, i.effective(d)); err != nil {
			return err
		}
	}
	return nil
}

// copyBack publishes the values of every usage that propagates changes to
// the global namespace
func (i *Instance) copyBack() {
	for _, b := range i.properties() {
		if !b.d.Usage.CopiesBack() || b.d.Scope == api.ScopeGlobal {
			continue
		}
		ns, err := i.WriteNamespace(b.d, b.act)
		if err != nil {
			continue
		}
		raw, ok := i.values.Get(store.NewKey(ns, b.d.Name))
		if !ok {
			continue
		}
		i.values.Set(store.NewKey(store.Global, b.d.Name), raw)
	}
}

// finish runs every activity's finish step in order. An activity naming a
// next flow proposes it on success; a finish hook may replace the
// proposal, and returning nil never erases an earlier choice. A proposed
// next flow is only created once every hook has run, and flows the hooks
// created but did not choose are discarded
func (i *Instance) finish(state api.LifecycleState) (err error) {
	i.proposed = nil
	defer func() {
		if err != nil {
			i.followOn = nil
		}
		i.discardProposed()
	}()

	for _, a := range i.def.Activities {
		ac := i.contextFor(a)
		next := i.followOn
		if a.NextFlow != "" && state == api.StateSuccessful {
			next = &proposal{flowType: a.NextFlow}
		}
		if a.Hooks.Finish != nil {
			ref, hookErr := a.Hooks.Finish(ac, state, next)
			if hookErr != nil {
				return hookErr
			}
			if ref != nil {
				next = ref
			}
		}
		if next != nil {
			i.followOn = next
		}
	}

	if p, ok := i.followOn.(*proposal); ok {
		i.followOn = nil
		ref, newErr := i.contextFor(nil).NewFlow(p.flowType)
		if newErr != nil {
			return newErr
		}
		i.followOn = ref
	}
	if i.followOn != nil {
		slog.Info("Flow transitions",
			log.FlowKey(i.lookupKey),
			log.FlowType(i.def.Name),
			slog.String("next_flow_type", i.followOn.FlowType()))
	}
	return nil
}

// proposal is a next flow named by an activity and not yet created
type proposal struct {
	flowType string
}

func (p *proposal) LookupKey() string {
	return ""
}

func (p *proposal) FlowType() string {
	return p.flowType
}

func (i *Instance) discardProposed() {
	proposed := i.proposed
	i.proposed = nil
	if i.handoff == nil {
		return
	}
	for _, inst := range proposed {
		if i.followOn != nil && inst.LookupKey() == i.followOn.LookupKey() {
			continue
		}
		i.handoff.Discard(inst)
	}
}
