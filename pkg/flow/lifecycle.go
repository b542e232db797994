package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
	"github.com/kode4food/argyll/wizard/pkg/store"
)

// InitializeFlow settles every property the flow and its activities own
// into its write namespace. The instance fails if any property cannot be
// initialized
func (i *Instance) InitializeFlow(_ context.Context) error {
	if err := i.transition(api.StateInitializing); err != nil {
		return err
	}
	for _, b := range i.properties() {
		if err := i.InitializeProperty(b.d, b.act); err != nil {
			return i.failWith(err)
		}
	}
	return i.transition(api.StateInitialized)
}

// Begin initializes the flow when needed and activates its first activity.
// Invisible activities that finish on activation are skipped, and a flow
// whose every activity finishes that way completes immediately
func (i *Instance) Begin(ctx context.Context) error {
	if i.state == api.StateCreated {
		if err := i.InitializeFlow(ctx); err != nil {
			return err
		}
	}
	if err := i.transition(api.StateStarting); err != nil {
		return err
	}
	if err := i.selectActivity(ctx, 0, true); err != nil {
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

// Resume picks a flow back up for a new request. A flow that never began is
// begun; a started flow re-activates its current activity without
// reinitializing any property
func (i *Instance) Resume(ctx context.Context) error {
	switch {
	case i.IsCompleted():
		return fmt.Errorf("%w: %s", api.ErrFlowCompleted, i.lookupKey)
	case i.state == api.StateCreated || i.state == api.StateInitialized:
		return i.Begin(ctx)
	case i.state != api.StateStarted:
		return fmt.Errorf("%w: resuming a %s flow", api.ErrInvalidTransition,
			i.state)
	}
	return i.activate(ctx, i.current, api.DirectionNone, true)
}

// Next advances to the following activity, completing the flow
// successfully when the current activity is the last
func (i *Instance) Next(ctx context.Context) error {
	if err := i.checkRunning(); err != nil {
		return err
	}
	if i.current < len(i.def.Activities)-1 {
		return i.selectActivity(ctx, i.current+1, true)
	}
	if err := i.passivate(api.DirectionForward, true); err != nil {
		return err
	}
	return i.Complete(ctx, api.StateSuccessful)
}

// Previous moves back one activity. Moving backward never validates
func (i *Instance) Previous(ctx context.Context) error {
	if err := i.checkRunning(); err != nil {
		return err
	}
	if i.current <= 0 {
		return fmt.Errorf("%w: no activity before %d", api.ErrNoSuchElement,
			i.current)
	}
	return i.selectActivity(ctx, i.current-1, true)
}

// SelectActivity makes the activity at idx current. With verify set,
// leaving the current activity in any direction but backward requires its
// advance-phase properties
func (i *Instance) SelectActivity(
	ctx context.Context, idx int, verify bool,
) error {
	if err := i.checkRunning(); err != nil {
		return err
	}
	return i.selectActivity(ctx, idx, verify)
}

// SelectActivityByName makes the named activity current
func (i *Instance) SelectActivityByName(
	ctx context.Context, name string, verify bool,
) error {
	idx := i.def.ActivityIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: activity %q", api.ErrNoSuchElement, name)
	}
	return i.SelectActivity(ctx, idx, verify)
}

// EndRequest clears every request flow local value. The session calls it
// once the request that set those values is over
func (i *Instance) EndRequest() {
	for _, b := range i.properties() {
		if b.d.Scope != api.ScopeRequestFlowLocal {
			continue
		}
		ns, err := i.WriteNamespace(b.d, b.act)
		if err != nil {
			continue
		}
		for _, n := range b.d.Names() {
			i.values.Remove(store.NewKey(ns, n))
		}
	}
	i.emit(EventRequestEnded, i.state, i.state)
}

func (i *Instance) selectActivity(
	ctx context.Context, target int, verify bool,
) error {
	if target < 0 || target >= len(i.def.Activities) {
		return fmt.Errorf("%w: activity index %d", api.ErrNoSuchElement,
			target)
	}
	dir := api.DirectionOf(i.current, target)
	if err := i.passivate(dir, verify); err != nil {
		return err
	}
	return i.activate(ctx, target, dir, verify)
}

// activate makes target current and runs its activation. While the
// activated activity finishes itself, the loop keeps moving in the same
// direction; running off the end going forward completes the flow
func (i *Instance) activate(
	ctx context.Context, target int, dir api.Direction, verify bool,
) error {
	for {
		i.current = target
		a := i.def.Activities[target]
		i.emit(EventActivitySelected, i.state, i.state)
		slog.Debug("Activity selected",
			log.FlowKey(i.lookupKey),
			log.Activity(a.Name),
			slog.String("direction", string(dir)))

		finished, err := i.runActivate(a, dir)
		if err != nil {
			return err
		}
		if !finished {
			return nil
		}

		step := 1
		if dir == api.DirectionBackward {
			step = -1
		}
		next := target + step
		if next < 0 {
			return nil
		}
		if dir == api.DirectionNone {
			dir = api.DirectionForward
		}
		if err := i.passivate(dir, verify); err != nil {
			return err
		}
		if next >= len(i.def.Activities) {
			return i.Complete(ctx, api.StateSuccessful)
		}
		target = next
	}
}

func (i *Instance) runActivate(
	a *api.ActivityDefinition, dir api.Direction,
) (bool, error) {
	var finished bool
	if a.Hooks.Activate != nil {
		var err error
		finished, err = a.Hooks.Activate(i.contextFor(a), dir)
		if err != nil {
			return false, err
		}
	}
	if !finished && a.Invisible {
		finished = i.validate(api.PhaseAdvance, dir, i.current).IsValid()
	}
	return finished, nil
}

// passivate leaves the current activity, failing without moving when its
// advance requirements are unmet
func (i *Instance) passivate(dir api.Direction, verify bool) error {
	a, ok := i.CurrentActivity()
	if !ok {
		return nil
	}
	if verify && dir != api.DirectionBackward {
		if err := i.validate(api.PhaseAdvance, dir, i.current).Err(); err != nil {
			return err
		}
	}
	if a.Hooks.Passivate != nil {
		return a.Hooks.Passivate(i.contextFor(a), dir)
	}
	return nil
}

func (i *Instance) checkRunning() error {
	if i.IsCompleted() {
		return fmt.Errorf("%w: %s", api.ErrFlowCompleted, i.lookupKey)
	}
	if i.state != api.StateStarting && i.state != api.StateStarted {
		return fmt.Errorf("%w: flow is %s", api.ErrInvalidTransition, i.state)
	}
	return nil
}

func (i *Instance) transition(to api.LifecycleState) error {
	from := i.state
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", api.ErrInvalidTransition, from, to)
	}
	i.state = to
	slog.Debug("Flow state changed",
		log.FlowKey(i.lookupKey),
		log.FlowType(i.def.Name),
		log.State(to))
	i.emit(EventStateChanged, from, to)
	return nil
}

// failWith moves the instance to failed without running finish hooks and
// returns err
func (i *Instance) failWith(err error) error {
	if terr := i.transition(api.StateFailed); terr != nil {
		return errors.Join(err, terr)
	}
	slog.Error("Flow failed",
		log.FlowKey(i.lookupKey),
		log.FlowType(i.def.Name),
		log.Error(err))
	return err
}
