package api

import "context"

type (
	// Codec converts typed property values to and from the strings held by
	// the value store, keyed by the property's descriptor
	Codec interface {
		Serialize(d *Descriptor, value any) (string, error)
		Deserialize(d *Descriptor, raw string) (any, error)
		IsDeserializable(d *Descriptor, raw string) bool
	}

	// ValueProvider computes a value for a property that has none
	ValueProvider interface {
		Get(ac ActivityContext, d *Descriptor) (any, error)
		IsHandling(d *Descriptor) bool
	}

	// Persister writes a property's changes back to an external store when
	// the flow saves its changes. The returned value, when not nil,
	// replaces the property's value
	Persister interface {
		SaveChanges(
			ctx context.Context, ac ActivityContext, d *Descriptor,
		) (any, error)
		IsPersisting(d *Descriptor) bool
	}

	// PageResolver names the page a caller should render for a flow
	PageResolver interface {
		Page(flow FlowRef) string
	}

	// DefinitionSource looks up flow definitions by flow type name. Unknown
	// names produce an error wrapping ErrFlowNotFound
	DefinitionSource interface {
		FlowDefinition(flowType string) (*FlowDefinition, error)
	}

	// FlowRef identifies a running flow instance
	FlowRef interface {
		LookupKey() string
		FlowType() string
	}

	// ActivityContext is the view of a flow instance handed to hooks,
	// providers and persisters. Activity returns the empty string for
	// flow-level properties
	ActivityContext interface {
		FlowRef
		Activity() string
		Property(name Name) (any, bool, error)
		SetProperty(name Name, value any) error
		NewFlow(flowType string) (FlowRef, error)
	}

	// ProviderFunc adapts a function to the ValueProvider interface. It only
	// serves descriptors it is explicitly attached to
	ProviderFunc func(ac ActivityContext, d *Descriptor) (any, error)

	// PersisterFunc adapts a function to the Persister interface. It only
	// serves descriptors it is explicitly attached to
	PersisterFunc func(
		ctx context.Context, ac ActivityContext, d *Descriptor,
	) (any, error)

	funcProvider struct {
		fn ProviderFunc
	}

	funcPersister struct {
		fn PersisterFunc
	}
)

// Provider wraps fn in a comparable ValueProvider, so that two descriptors
// sharing the returned value are recognized as sharing one provider
func (fn ProviderFunc) Provider() ValueProvider {
	return &funcProvider{fn: fn}
}

// Persister wraps fn in a comparable Persister
func (fn PersisterFunc) Persister() Persister {
	return &funcPersister{fn: fn}
}

func (p *funcProvider) Get(ac ActivityContext, d *Descriptor) (any, error) {
	return p.fn(ac, d)
}

func (p *funcProvider) IsHandling(*Descriptor) bool {
	return false
}

func (p *funcPersister) SaveChanges(
	ctx context.Context, ac ActivityContext, d *Descriptor,
) (any, error) {
	return p.fn(ctx, ac, d)
}

func (p *funcPersister) IsPersisting(*Descriptor) bool {
	return false
}
