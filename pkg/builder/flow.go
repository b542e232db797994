package builder

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

// Flow builds a frozen api.FlowDefinition
type Flow struct {
	name       string
	page       string
	activities []*Activity
	props      []*Property
	handlers   []any
}

// NewFlow creates a flow builder for the named flow type
func NewFlow(name string) *Flow {
	return &Flow{name: name}
}

func (f *Flow) WithPage(page string) *Flow {
	res := *f
	res.page = page
	return &res
}

// WithActivities appends activities in flow order
func (f *Flow) WithActivities(activities ...*Activity) *Flow {
	res := *f
	res.activities = append(slices.Clone(f.activities), activities...)
	return &res
}

// WithProperties declares flow-level properties. They take precedence over
// the declarations contributed by activities
func (f *Flow) WithProperties(props ...*Property) *Flow {
	res := *f
	res.props = append(slices.Clone(f.props), props...)
	return &res
}

// WithHandlers offers value providers and persisters to every property of
// the flow and its activities
func (f *Flow) WithHandlers(handlers ...any) *Flow {
	res := *f
	res.handlers = append(slices.Clone(f.handlers), handlers...)
	return &res
}

// Build merges every activity's non-local properties into the flow-wide
// schema, in activity order. An activity property that cannot merge with
// the flow-wide one is walled off as activity local internal state, and the
// conflict is logged. The resulting schemas are frozen
func (f *Flow) Build() (*api.FlowDefinition, error) {
	schema, err := buildSchema(f.props, f.handlers)
	if err != nil {
		return nil, err
	}

	def := &api.FlowDefinition{
		Name:   f.name,
		Page:   f.page,
		Schema: schema,
	}
	for _, a := range f.activities {
		ad, err := a.build(f.handlers)
		if err != nil {
			return nil, err
		}
		if err := f.push(schema, ad); err != nil {
			return nil, err
		}
		def.Activities = append(def.Activities, ad)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	schema.Freeze()
	for _, ad := range def.Activities {
		ad.Schema.Freeze()
	}
	return def, nil
}

func (f *Flow) push(schema *api.Schema, ad *api.ActivityDefinition) error {
	for _, d := range ad.Schema.Descriptors() {
		if d.Scope == api.ScopeActivityLocal {
			continue
		}
		err := schema.Add(d)
		if err == nil {
			continue
		}
		if !errors.Is(err, api.ErrIncompatibleProperty) {
			return err
		}
		slog.Warn("Property walled off from flow",
			log.FlowType(f.name),
			log.Activity(ad.Name),
			log.Property(d.Name),
			log.Error(api.ErrMergeConflict))
		local := d.WithScopeAndUsage(
			api.ScopeActivityLocal, api.UsageInternalState,
		)
		if err := ad.Schema.Put(local); err != nil {
			return err
		}
	}
	return nil
}
