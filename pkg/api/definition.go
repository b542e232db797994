package api

import (
	"context"
	"fmt"
	"slices"
)

type (
	// FlowDefinition is a reusable, ordered activity sequence plus the
	// flow-wide property schema merged from its activities. Definitions are
	// built once and shared read-only by every instance
	FlowDefinition struct {
		Name       string
		Page       string
		Activities []*ActivityDefinition
		Schema     *Schema
	}

	// ActivityDefinition is one step of a flow. Its schema holds the
	// properties the activity declared, including any copies walled off
	// from the flow-wide schema after a merge conflict
	ActivityDefinition struct {
		Name      string
		Type      string
		Page      string
		Invisible bool
		NextFlow  string
		Schema    *Schema
		Hooks     ActivityHooks
	}

	// ActivityHooks are the explicitly registered callbacks of an activity.
	// Every hook is optional
	ActivityHooks struct {
		// Activate runs when the activity becomes current and reports
		// whether the activity finishes itself immediately
		Activate func(ac ActivityContext, dir Direction) (bool, error)

		// Passivate runs when the activity stops being current
		Passivate func(ac ActivityContext, dir Direction) error

		// SaveChanges runs after the activity's persisters when the flow
		// completes successfully
		SaveChanges func(ctx context.Context, ac ActivityContext) error

		// Finish runs once the flow reaches a terminal state. It receives
		// the follow-on flow chosen so far and returns the follow-on it
		// wants; returning nil keeps the previous choice
		Finish func(
			ac ActivityContext, state LifecycleState, next FlowRef,
		) (FlowRef, error)
	}

	// Definitions is an in-memory DefinitionSource keyed by flow type
	Definitions map[string]*FlowDefinition
)

// Validate checks the structural rules every definition must satisfy
func (f *FlowDefinition) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: flow without a name", ErrInvalidDefinition)
	}
	if len(f.Activities) == 0 {
		return fmt.Errorf("%w: flow %q has no activities",
			ErrInvalidDefinition, f.Name)
	}
	seen := map[string]bool{}
	for _, a := range f.Activities {
		if a.Name == "" {
			return fmt.Errorf("%w: flow %q has an unnamed activity",
				ErrInvalidDefinition, f.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: flow %q repeats activity %q",
				ErrInvalidDefinition, f.Name, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// ActivityNames returns the activity names in flow order
func (f *FlowDefinition) ActivityNames() []string {
	res := make([]string, len(f.Activities))
	for i, a := range f.Activities {
		res[i] = a.Name
	}
	return res
}

// ActivityIndex returns the position of the named activity, or -1
func (f *FlowDefinition) ActivityIndex(name string) int {
	return slices.IndexFunc(f.Activities, func(a *ActivityDefinition) bool {
		return a.Name == name
	})
}

// Descriptor returns the effective definition of a property as seen from
// the given activity. Activity local declarations are the activity's own;
// every other declaration resolves through the flow-wide schema, where the
// activities' contributions were merged
func (f *FlowDefinition) Descriptor(
	a *ActivityDefinition, name Name,
) (*Descriptor, bool) {
	var local *Descriptor
	if a != nil {
		local, _ = a.Schema.Get(name)
	}
	if local != nil && local.Scope == ScopeActivityLocal {
		return local, true
	}
	if d, ok := f.Schema.Get(name); ok {
		return d, true
	}
	return local, local != nil
}

// FlowDefinition implements DefinitionSource
func (d Definitions) FlowDefinition(flowType string) (*FlowDefinition, error) {
	if def, ok := d[flowType]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrFlowNotFound, flowType)
}

// Register adds definitions keyed by their names
func (d Definitions) Register(defs ...*FlowDefinition) Definitions {
	for _, def := range defs {
		d[def.Name] = def
	}
	return d
}
