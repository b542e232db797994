package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/builder"
)

func TestSharedReadOnlyProperty(t *testing.T) {
	user := builder.NewProperty("user").
		WithShape(api.Scalar(api.KindBool)).
		WithUsage(api.UsageUse)

	def, err := builder.NewFlow("signup").
		WithActivities(
			builder.NewActivity("first").WithProperties(user),
			builder.NewActivity("second").WithProperties(user),
		).
		Build()
	assert.NoError(t, err)
	assert.Equal(t, 1, def.Schema.Len())

	d, ok := def.Schema.Get("user")
	assert.True(t, ok)
	assert.Equal(t, api.UsageUse, d.Usage)
	assert.Equal(t, api.KindBool, d.Shape.Kind)
}

func TestSetElementWidening(t *testing.T) {
	def, err := builder.NewFlow("tally").
		WithActivities(
			builder.NewActivity("a").WithProperties(
				builder.NewProperty("count").
					WithShape(api.SetOf(api.Scalar(api.KindInt))),
			),
			builder.NewActivity("b").WithProperties(
				builder.NewProperty("count").
					WithShape(api.SetOf(api.Scalar(api.KindLong))),
			),
		).
		Build()
	assert.NoError(t, err)

	d, ok := def.Schema.Get("count")
	assert.True(t, ok)
	assert.Equal(t, api.KindLong, d.Shape.Elem.Kind)
}

func TestConflictWalledOff(t *testing.T) {
	def, err := builder.NewFlow("order").
		WithActivities(
			builder.NewActivity("cart").WithProperties(
				builder.NewProperty("item").
					WithShape(api.Scalar(api.KindString)),
			),
			builder.NewActivity("pay").WithProperties(
				builder.NewProperty("item").
					WithShape(api.Scalar(api.KindInt)),
			),
		).
		Build()
	assert.NoError(t, err)

	flowItem, _ := def.Schema.Get("item")
	assert.Equal(t, api.KindString, flowItem.Shape.Kind)

	pay := def.Activities[1]
	local, ok := pay.Schema.Get("item")
	assert.True(t, ok)
	assert.Equal(t, api.ScopeActivityLocal, local.Scope)
	assert.Equal(t, api.UsageInternalState, local.Usage)
	assert.Equal(t, api.KindInt, local.Shape.Kind)

	eff, _ := def.Descriptor(pay, "item")
	assert.Same(t, local, eff)
	eff, _ = def.Descriptor(def.Activities[0], "item")
	assert.Same(t, flowItem, eff)
}

func TestConflictWithinActivity(t *testing.T) {
	_, err := builder.NewActivity("a").WithProperties(
		builder.NewProperty("x").WithShape(api.Scalar(api.KindString)),
		builder.NewProperty("x").WithShape(api.Scalar(api.KindBool)),
	).Build()
	assert.ErrorIs(t, err, api.ErrIncompatibleProperty)

	_, err = builder.NewFlow("f").
		WithProperties(
			builder.NewProperty("x").WithShape(api.Scalar(api.KindString)),
			builder.NewProperty("x").WithShape(api.Scalar(api.KindBool)),
		).
		WithActivities(builder.NewActivity("a")).
		Build()
	assert.ErrorIs(t, err, api.ErrIncompatibleProperty)
}

func TestActivityLocalNotPushed(t *testing.T) {
	def, err := builder.NewFlow("f").
		WithActivities(builder.NewActivity("a").WithProperties(
			builder.NewProperty("scratch").
				WithScope(api.ScopeActivityLocal).
				WithUsage(api.UsageInternalState),
		)).
		Build()
	assert.NoError(t, err)
	assert.Zero(t, def.Schema.Len())
	assert.Equal(t, 1, def.Activities[0].Schema.Len())
}

func TestFlowPropertiesTakePrecedence(t *testing.T) {
	def, err := builder.NewFlow("f").
		WithProperties(builder.NewProperty("email").
			WithUsage(api.UsageIO).
			WithPhase(api.PhaseFinish)).
		WithActivities(builder.NewActivity("a").WithProperties(
			builder.NewProperty("email").WithPhase(api.PhaseAdvance),
		)).
		Build()
	assert.NoError(t, err)

	d, _ := def.Schema.Get("email")
	assert.Equal(t, api.PhaseFinish, d.Phase)
	assert.Equal(t, api.UsageIO, d.Usage)

	local, _ := def.Activities[0].Schema.Get("email")
	assert.Equal(t, api.PhaseAdvance, local.Phase)
}

func TestFlowFrozen(t *testing.T) {
	def, err := builder.NewFlow("f").
		WithActivities(builder.NewActivity("a")).
		Build()
	assert.NoError(t, err)
	assert.True(t, def.Schema.IsFrozen())
	assert.True(t, def.Activities[0].Schema.IsFrozen())

	err = def.Schema.Add(&api.Descriptor{Name: "late"})
	assert.ErrorIs(t, err, api.ErrTemplateMutation)
}

func TestFlowValidation(t *testing.T) {
	_, err := builder.NewFlow("empty").Build()
	assert.ErrorIs(t, err, api.ErrInvalidDefinition)

	_, err = builder.NewFlow("dup").
		WithActivities(builder.NewActivity("a"), builder.NewActivity("a")).
		Build()
	assert.ErrorIs(t, err, api.ErrInvalidDefinition)
}

func TestActivityDefinition(t *testing.T) {
	act, err := builder.NewActivity("ContactDetails").
		WithPage("contact.html").
		WithNextFlow("billing").
		Invisible().
		Build()
	assert.NoError(t, err)
	assert.Equal(t, "contact-details", act.Type)
	assert.Equal(t, "contact.html", act.Page)
	assert.Equal(t, "billing", act.NextFlow)
	assert.True(t, act.Invisible)
	assert.False(t, act.Schema.IsFrozen())

	typed, err := builder.NewActivity("x").WithType("address").Build()
	assert.NoError(t, err)
	assert.Equal(t, "address", typed.Type)
}
