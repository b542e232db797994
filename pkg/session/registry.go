package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/flow"
	"github.com/kode4food/argyll/wizard/pkg/log"
	"github.com/kode4food/argyll/wizard/pkg/store"
)

type (
	// Registry is the ordered collection of a session's flow instances. It
	// is safe for concurrent use; instances themselves are not, and the
	// registry never holds its lock while calling into one
	Registry struct {
		mu       sync.Mutex
		defs     api.DefinitionSource
		pages    api.PageResolver
		values   *store.Store
		codec    api.Codec
		listener flow.Listener
		flows    []*flow.Instance
		current  string
	}

	// Option configures a Registry
	Option func(*Registry)
)

var _ flow.Handoff = (*Registry)(nil)

// NewRegistry returns an empty registry creating flows from defs. A nil
// pages resolver falls back to each instance's own page
func NewRegistry(
	defs api.DefinitionSource, pages api.PageResolver, opts ...Option,
) *Registry {
	r := &Registry{
		defs:   defs,
		pages:  pages,
		values: store.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithStore shares an existing value store with every instance
func WithStore(s *store.Store) Option {
	return func(r *Registry) {
		r.values = s
	}
}

// WithCodec sets the codec handed to created instances
func WithCodec(c api.Codec) Option {
	return func(r *Registry) {
		r.codec = c
	}
}

// WithListener receives the lifecycle events of every created instance
func WithListener(l flow.Listener) Option {
	return func(r *Registry) {
		r.listener = l
	}
}

// Store returns the value store shared by the session's instances
func (r *Registry) Store() *store.Store {
	return r.values
}

// Add appends inst and routes its completion through the registry. The
// first instance added becomes current
func (r *Registry) Add(inst *flow.Instance) {
	inst.SetHandoff(r)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows = append(r.flows, inst)
	if r.current == "" {
		r.current = inst.LookupKey()
	}
}

// AddAfter inserts inst directly after the instance identified by after,
// which becomes the instance inst returns to when it completes
func (r *Registry) AddAfter(after api.FlowRef, inst *flow.Instance) error {
	inst.SetHandoff(r)
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(after.LookupKey())
	if idx < 0 {
		return fmt.Errorf("%w: %s", api.ErrLookupKeyNotFound,
			after.LookupKey())
	}
	inst.SetReturnTo(after)
	r.flows = slices.Insert(r.flows, idx+1, inst)
	return nil
}

// Get returns the instance registered under key
func (r *Registry) Get(key string) (*flow.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := r.indexOf(key); idx >= 0 {
		return r.flows[idx], nil
	}
	return nil, fmt.Errorf("%w: %s", api.ErrLookupKeyNotFound, key)
}

// Current returns the instance the session is working on
func (r *Registry) Current() (*flow.Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := r.indexOf(r.current); idx >= 0 {
		return r.flows[idx], true
	}
	return nil, false
}

// MakeCurrent switches the session to the instance registered under key
func (r *Registry) MakeCurrent(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(key) < 0 {
		return fmt.Errorf("%w: %s", api.ErrLookupKeyNotFound, key)
	}
	r.current = key
	return nil
}

// Drop removes the instance registered under key. Dropping the current
// instance moves the session to the instance it returns to, if that is
// still registered, and otherwise to the last one
func (r *Registry) Drop(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s", api.ErrLookupKeyNotFound, key)
	}
	dropped := r.flows[idx]
	r.flows = slices.Delete(r.flows, idx, idx+1)
	if r.current != key {
		return nil
	}
	r.current = ""
	if rt := dropped.ReturnTo(); rt != nil && r.indexOf(rt.LookupKey()) >= 0 {
		r.current = rt.LookupKey()
	} else if len(r.flows) > 0 {
		r.current = r.flows[len(r.flows)-1].LookupKey()
	}
	return nil
}

// Flows returns a snapshot of the registered instances in order
func (r *Registry) Flows() []*flow.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.flows)
}

// Len returns the number of registered instances
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// CreateFlow registers a new, unstarted instance of flowType
func (r *Registry) CreateFlow(flowType string) (*flow.Instance, error) {
	def, err := r.defs.FlowDefinition(flowType)
	if err != nil {
		return nil, err
	}
	opts := []flow.Option{
		flow.WithStore(r.values),
		flow.WithDefinitions(r.defs),
	}
	if r.codec != nil {
		opts = append(opts, flow.WithCodec(r.codec))
	}
	if r.listener != nil {
		opts = append(opts, flow.WithListener(r.listener))
	}
	inst := flow.New(def, opts...)
	r.Add(inst)
	slog.Debug("Flow created",
		log.FlowKey(inst.LookupKey()),
		log.FlowType(flowType))
	return inst, nil
}

// StartFlow creates an instance of flowType, seeds it with initial values,
// makes it current and begins it. It returns the instance and the page to
// render next
func (r *Registry) StartFlow(
	ctx context.Context, flowType string, initial map[api.Name]any,
) (*flow.Instance, string, error) {
	inst, err := r.CreateFlow(flowType)
	if err != nil {
		return nil, "", err
	}
	for name, v := range initial {
		if err := inst.Preset(name, v); err != nil {
			return inst, "", err
		}
	}
	if err := r.MakeCurrent(inst.LookupKey()); err != nil {
		return inst, "", err
	}
	if err := inst.Begin(ctx); err != nil {
		return inst, "", err
	}
	return inst, r.pageOf(inst), nil
}

// CompleteFlow completes the instance registered under key and returns the
// page the session moved on to
func (r *Registry) CompleteFlow(
	ctx context.Context, key string, state api.LifecycleState,
) (string, error) {
	inst, err := r.Get(key)
	if err != nil {
		return "", err
	}
	if err := inst.Complete(ctx, state); err != nil {
		return "", err
	}
	return inst.OutcomePage(), nil
}

// EndRequest tells every instance that the current request is over
func (r *Registry) EndRequest() {
	for _, inst := range r.Flows() {
		inst.EndRequest()
	}
}

// NewFlow implements flow.Handoff
func (r *Registry) NewFlow(flowType string) (*flow.Instance, error) {
	return r.CreateFlow(flowType)
}

// Completed implements flow.Handoff. A follow-on flow takes over the
// completed flow's place and return target and is begun or resumed;
// without one the session returns to the flow the completed one was
// started from. The completed instance is dropped either way
func (r *Registry) Completed(
	ctx context.Context, inst *flow.Instance,
) (string, error) {
	key := inst.LookupKey()
	page := r.pageOf(inst)

	if ref := inst.FollowOn(); ref != nil {
		next, err := r.followOn(ref)
		if err != nil {
			return "", err
		}
		if rt := inst.ReturnTo(); rt != nil {
			next.SetReturnTo(rt)
		}
		if err := r.MakeCurrent(next.LookupKey()); err != nil {
			return "", err
		}
		if err := r.Drop(key); err != nil {
			return "", err
		}
		if next.State() == api.StateCreated {
			err = next.Begin(ctx)
		} else {
			err = next.Resume(ctx)
		}
		if err != nil {
			return "", err
		}
		if next.IsCompleted() {
			return next.OutcomePage(), nil
		}
		return r.pageOf(next), nil
	}

	if rt := inst.ReturnTo(); rt != nil {
		if back, err := r.Get(rt.LookupKey()); err == nil {
			page = r.pageOf(back)
		}
	}
	if err := r.Drop(key); err != nil {
		slog.Warn("Completed flow not registered",
			log.FlowKey(key),
			log.Error(err))
	}
	slog.Info("Flow completed",
		log.FlowKey(key),
		log.FlowType(inst.FlowType()),
		log.State(inst.State()))
	return page, nil
}

// Discard implements flow.Handoff by dropping a flow that was created as a
// follow-on candidate but never chosen
func (r *Registry) Discard(inst *flow.Instance) {
	if err := r.Drop(inst.LookupKey()); err != nil {
		return
	}
	slog.Debug("Unused follow-on dropped",
		log.FlowKey(inst.LookupKey()),
		log.FlowType(inst.FlowType()))
}

// followOn returns the registered instance behind ref, registering it
// first when it was created outside the session
func (r *Registry) followOn(ref api.FlowRef) (*flow.Instance, error) {
	if next, err := r.Get(ref.LookupKey()); err == nil {
		return next, nil
	}
	next, ok := ref.(*flow.Instance)
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrLookupKeyNotFound,
			ref.LookupKey())
	}
	r.Add(next)
	return next, nil
}

func (r *Registry) pageOf(inst *flow.Instance) string {
	if r.pages != nil {
		if page := r.pages.Page(inst); page != "" {
			return page
		}
	}
	return inst.Page()
}

func (r *Registry) indexOf(key string) int {
	return slices.IndexFunc(r.flows, func(inst *flow.Instance) bool {
		return inst.LookupKey() == key
	})
}
