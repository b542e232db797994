package flow

import (
	"context"
	"maps"

	"github.com/google/uuid"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/codec"
	"github.com/kode4food/argyll/wizard/pkg/store"
)

type (
	// Instance is one running session of a flow definition
	Instance struct {
		lookupKey string
		def       *api.FlowDefinition
		defs      api.DefinitionSource
		values    *store.Store
		codec     api.Codec
		state     api.LifecycleState
		current   int
		overrides map[api.Name]*api.Override
		returnTo  api.FlowRef
		followOn  api.FlowRef
		page      string
		handoff   Handoff
		listener  Listener
		proposed  []*Instance
	}

	// Handoff is the session-side collaborator of an instance. It creates
	// follow-on flows on the instance's behalf and decides what the caller
	// sees once the instance completes. Flows created while finishing that
	// were not chosen as the follow-on are handed back through Discard
	Handoff interface {
		NewFlow(flowType string) (*Instance, error)
		Completed(ctx context.Context, inst *Instance) (string, error)
		Discard(inst *Instance)
	}

	// Option configures an Instance
	Option func(*Instance)
)

var _ api.FlowRef = (*Instance)(nil)

// New creates an instance of def in the created state
func New(def *api.FlowDefinition, opts ...Option) *Instance {
	i := &Instance{
		lookupKey: uuid.NewString(),
		def:       def,
		values:    store.New(),
		codec:     codec.JSON{},
		state:     api.StateCreated,
		current:   -1,
		overrides: map[api.Name]*api.Override{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// WithLookupKey replaces the generated lookup key
func WithLookupKey(key string) Option {
	return func(i *Instance) {
		i.lookupKey = key
	}
}

// WithStore runs the instance over an existing value store, which may be
// shared with other instances of the same session
func WithStore(s *store.Store) Option {
	return func(i *Instance) {
		i.values = s
	}
}

// WithCodec replaces the default JSON codec
func WithCodec(c api.Codec) Option {
	return func(i *Instance) {
		i.codec = c
	}
}

// WithDefinitions supplies the source used to morph into other flow types
func WithDefinitions(defs api.DefinitionSource) Option {
	return func(i *Instance) {
		i.defs = defs
	}
}

// WithHandoff attaches the instance to a session
func WithHandoff(h Handoff) Option {
	return func(i *Instance) {
		i.handoff = h
	}
}

// WithListener receives every lifecycle event the instance raises
func WithListener(l Listener) Option {
	return func(i *Instance) {
		i.listener = l
	}
}

// WithOverrides patches the definition's descriptors for this instance only
func WithOverrides(o map[api.Name]*api.Override) Option {
	return func(i *Instance) {
		maps.Copy(i.overrides, o)
	}
}

// WithReturnTo names the flow the session goes back to on completion
func WithReturnTo(ref api.FlowRef) Option {
	return func(i *Instance) {
		i.returnTo = ref
	}
}

// LookupKey returns the instance's immutable identity
func (i *Instance) LookupKey() string {
	return i.lookupKey
}

// FlowType returns the name of the instance's current definition
func (i *Instance) FlowType() string {
	return i.def.Name
}

// Definition returns the definition the instance currently runs
func (i *Instance) Definition() *api.FlowDefinition {
	return i.def
}

// State returns the lifecycle state
func (i *Instance) State() api.LifecycleState {
	return i.state
}

// IsCompleted reports whether the instance reached a terminal state
func (i *Instance) IsCompleted() bool {
	return i.state.IsTerminal()
}

// CurrentIndex returns the current activity index, or -1 before the flow
// begins
func (i *Instance) CurrentIndex() int {
	return i.current
}

// CurrentActivity returns the current activity definition
func (i *Instance) CurrentActivity() (*api.ActivityDefinition, bool) {
	if i.current < 0 || i.current >= len(i.def.Activities) {
		return nil, false
	}
	return i.def.Activities[i.current], true
}

// Store returns the instance's value store
func (i *Instance) Store() *store.Store {
	return i.values
}

// ReturnTo returns the flow the caller goes back to once this one
// completes without a follow-on
func (i *Instance) ReturnTo() api.FlowRef {
	return i.returnTo
}

// SetReturnTo replaces the flow the caller goes back to
func (i *Instance) SetReturnTo(ref api.FlowRef) {
	i.returnTo = ref
}

// FollowOn returns the flow chosen by the finish hooks, if any
func (i *Instance) FollowOn() api.FlowRef {
	return i.followOn
}

// SetHandoff attaches the session-side collaborator
func (i *Instance) SetHandoff(h Handoff) {
	i.handoff = h
}

// SetOverride patches one property's definition for this instance
func (i *Instance) SetOverride(name api.Name, o *api.Override) {
	i.overrides[name] = o
}

// Page returns the page to render for the instance: the current activity's
// page when it names one, otherwise the flow's
func (i *Instance) Page() string {
	if a, ok := i.CurrentActivity(); ok && a.Page != "" {
		return a.Page
	}
	return i.def.Page
}

// OutcomePage returns the page the session chose when the instance
// completed
func (i *Instance) OutcomePage() string {
	return i.page
}
