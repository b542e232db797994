package builder

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/kode4food/argyll/wizard/pkg/api"
)

// Activity builds an api.ActivityDefinition
type Activity struct {
	name         string
	activityType string
	page         string
	nextFlow     string
	invisible    bool
	props        []*Property
	handlers     []any
	hooks        api.ActivityHooks
}

var (
	camelCaseRegex = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	delimiterRegex = regexp.MustCompile(`[\s_]+`)
)

// NewActivity creates an activity builder. The activity type defaults to
// the kebab-cased name
func NewActivity(name string) *Activity {
	return &Activity{
		name:         name,
		activityType: toKebabCase(name),
	}
}

// WithType sets the activity type, which names a namespace shared by every
// activity of that type
func (a *Activity) WithType(activityType string) *Activity {
	res := *a
	res.activityType = activityType
	return &res
}

func (a *Activity) WithPage(page string) *Activity {
	res := *a
	res.page = page
	return &res
}

// WithNextFlow names the flow type to transition to when this activity
// finishes a successful flow
func (a *Activity) WithNextFlow(flowType string) *Activity {
	res := *a
	res.nextFlow = flowType
	return &res
}

// Invisible marks the activity as finishing itself on activation once its
// advance requirements are met
func (a *Activity) Invisible() *Activity {
	res := *a
	res.invisible = true
	return &res
}

func (a *Activity) WithProperties(props ...*Property) *Activity {
	res := *a
	res.props = append(slices.Clone(a.props), props...)
	return &res
}

// WithHandlers offers value providers and persisters to every property
func (a *Activity) WithHandlers(handlers ...any) *Activity {
	res := *a
	res.handlers = append(slices.Clone(a.handlers), handlers...)
	return &res
}

func (a *Activity) OnActivate(
	fn func(api.ActivityContext, api.Direction) (bool, error),
) *Activity {
	res := *a
	res.hooks.Activate = fn
	return &res
}

func (a *Activity) OnPassivate(
	fn func(api.ActivityContext, api.Direction) error,
) *Activity {
	res := *a
	res.hooks.Passivate = fn
	return &res
}

func (a *Activity) OnSaveChanges(fn func(
	ctx context.Context, ac api.ActivityContext,
) error) *Activity {
	res := *a
	res.hooks.SaveChanges = fn
	return &res
}

func (a *Activity) OnFinish(fn func(
	api.ActivityContext, api.LifecycleState, api.FlowRef,
) (api.FlowRef, error)) *Activity {
	res := *a
	res.hooks.Finish = fn
	return &res
}

// Name returns the activity name
func (a *Activity) Name() string {
	return a.name
}

// Build returns the activity definition with an unfrozen schema.
// Conflicting declarations within the activity are a configuration error
func (a *Activity) Build() (*api.ActivityDefinition, error) {
	return a.build(nil)
}

func (a *Activity) build(handlers []any) (*api.ActivityDefinition, error) {
	handlers = append(slices.Clone(a.handlers), handlers...)
	schema, err := buildSchema(a.props, handlers)
	if err != nil {
		return nil, err
	}
	return &api.ActivityDefinition{
		Name:      a.name,
		Type:      a.activityType,
		Page:      a.page,
		Invisible: a.invisible,
		NextFlow:  a.nextFlow,
		Schema:    schema,
		Hooks:     a.hooks,
	}, nil
}

func buildSchema(props []*Property, handlers []any) (*api.Schema, error) {
	schema, _ := api.NewSchema()
	for _, p := range props {
		d, err := p.WithHandlers(handlers...).Build()
		if err != nil {
			return nil, err
		}
		if err := schema.Add(d); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

func toKebabCase(s string) string {
	s = camelCaseRegex.ReplaceAllString(s, "$1-$2")
	s = delimiterRegex.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}
