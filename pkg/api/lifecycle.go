package api

import "github.com/kode4food/argyll/wizard/pkg/util"

// LifecycleState is the lifecycle position of a flow instance
type LifecycleState string

const (
	StateCreated      LifecycleState = "created"
	StateInitializing LifecycleState = "initializing"
	StateInitialized  LifecycleState = "initialized"
	StateStarting     LifecycleState = "starting"
	StateStarted      LifecycleState = "started"
	StateSuccessful   LifecycleState = "successful"
	StateCanceled     LifecycleState = "canceled"
	StateFailed       LifecycleState = "failed"
)

// LifecycleTransitions is the flow lifecycle state machine. Started flows
// may re-enter initializing when they morph into another flow type
var LifecycleTransitions = util.StateTransitions[LifecycleState]{
	StateCreated: util.SetOf(
		StateInitializing, StateCanceled, StateFailed,
	),
	StateInitializing: util.SetOf(
		StateInitialized, StateFailed,
	),
	StateInitialized: util.SetOf(
		StateStarting, StateInitializing, StateCanceled, StateFailed,
	),
	StateStarting: util.SetOf(
		StateStarted, StateSuccessful, StateCanceled, StateFailed,
	),
	StateStarted: util.SetOf(
		StateInitializing, StateSuccessful, StateCanceled, StateFailed,
	),
	StateSuccessful: {},
	StateCanceled:   {},
	StateFailed:     {},
}

// IsTerminal reports whether no further lifecycle change is permitted
func (s LifecycleState) IsTerminal() bool {
	return LifecycleTransitions.IsTerminal(s)
}

// VerifiesValues reports whether entering this terminal state requires the
// finish and saveChanges gates to pass
func (s LifecycleState) VerifiesValues() bool {
	return s == StateSuccessful
}

// CanTransition reports whether the lifecycle may move from s to next
func (s LifecycleState) CanTransition(next LifecycleState) bool {
	return LifecycleTransitions.CanTransition(s, next)
}
