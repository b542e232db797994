package flow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

// Morph turns a running instance into an instance of another flow type
// whose activity sequence does not reorder any activity the two share. The
// current activity is left without validation, the supplied values are
// stored, every property is reinitialized under the new definition, and
// the instance resumes at the activity corresponding to where it was
func (i *Instance) Morph(
	ctx context.Context, flowType string, initial map[api.Name]any,
) error {
	if i.IsCompleted() {
		return fmt.Errorf("%w: %s", api.ErrFlowCompleted, i.lookupKey)
	}
	if i.state != api.StateCreated && i.state != api.StateInitialized &&
		i.state != api.StateStarted {
		return fmt.Errorf("%w: morphing a %s flow", api.ErrInvalidTransition,
			i.state)
	}
	if i.defs == nil {
		return fmt.Errorf("%w: %q", api.ErrFlowNotFound, flowType)
	}
	def, err := i.defs.FlowDefinition(flowType)
	if err != nil {
		return err
	}

	prev := i.def
	if err := checkMorph(prev.ActivityNames(), def.ActivityNames()); err != nil {
		return err
	}
	if err := i.passivate(api.DirectionNone, false); err != nil {
		return err
	}
	target := correspondingIndex(prev, def, i.current)

	i.def = def
	i.current = -1
	i.values.ClearCache()
	i.dropActivityValues(prev, def)
	for name, v := range initial {
		if err := i.Preset(name, v); err != nil {
			return err
		}
	}

	if err := i.InitializeFlow(ctx); err != nil {
		return err
	}
	slog.Info("Flow morphed",
		log.FlowKey(i.lookupKey),
		log.FlowType(def.Name),
		slog.String("previous_flow_type", prev.Name))
	i.emit(EventMorphed, i.state, i.state)

	if err := i.transition(api.StateStarting); err != nil {
		return err
	}
	if err := i.selectActivity(ctx, target, false); err != nil {
		if !i.IsCompleted() {
			return i.failWith(err)
		}
		return err
	}
	if i.state == api.StateStarting {
		return i.transition(api.StateStarted)
	}
	return nil
}

// dropActivityValues removes the activity local values of every activity
// of from that to does not have
func (i *Instance) dropActivityValues(from, to *api.FlowDefinition) {
	for _, a := range from.Activities {
		if to.ActivityIndex(a.Name) >= 0 {
			continue
		}
		removed := i.values.RemoveNamespace(i.activityNamespace(a))
		if len(removed) > 0 {
			slog.Debug("Activity values dropped",
				log.FlowKey(i.lookupKey),
				log.Activity(a.Name),
				slog.Int("count", len(removed)))
		}
	}
}

// checkMorph fails when the activities shared by both sequences appear in
// a different relative order
func checkMorph(from, to []string) error {
	shared := func(names, other []string) []string {
		return slices.DeleteFunc(slices.Clone(names), func(n string) bool {
			return !slices.Contains(other, n)
		})
	}
	if !slices.Equal(shared(from, to), shared(to, from)) {
		return fmt.Errorf("%w: %v and %v", api.ErrMorphIncompatible, from, to)
	}
	return nil
}

// correspondingIndex finds the activity of to matching the activity at idx
// of from: the same name when to has it, otherwise the activity after the
// last earlier activity both flows share
func correspondingIndex(from, to *api.FlowDefinition, idx int) int {
	if idx < 0 {
		return 0
	}
	if res := to.ActivityIndex(from.Activities[idx].Name); res >= 0 {
		return res
	}
	for j := idx - 1; j >= 0; j-- {
		if res := to.ActivityIndex(from.Activities[j].Name); res >= 0 {
			return min(res+1, len(to.Activities)-1)
		}
	}
	return 0
}
