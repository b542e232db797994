package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/builder"
	"github.com/kode4food/argyll/wizard/pkg/flow"
)

func gatedFlow(t *testing.T) *api.FlowDefinition {
	t.Helper()
	return mustFlow(t, builder.NewFlow("checkout").
		WithProperties(required("terms", api.PhaseFinish)).
		WithActivities(
			builder.NewActivity("cart").WithProperties(
				required("items", api.PhaseAdvance),
				required("coupon", api.PhaseActivate),
			),
			builder.NewActivity("shipping").WithProperties(
				required("address", api.PhaseAdvance),
				required("carrier", api.PhaseActivate),
			),
		))
}

func TestValidatePhases(t *testing.T) {
	inst := flow.New(gatedFlow(t))
	assert.NoError(t, inst.InitializeFlow(context.Background()))
	assert.NoError(t, inst.Preset("items", "3 books"))

	res := inst.Validate(api.PhaseActivate, api.DirectionNone)
	assert.True(t, res.IsValid())

	res = inst.Validate(api.PhaseFinish, api.DirectionForward)
	assert.Equal(t, []api.Failure{
		{Property: "terms", Phase: api.PhaseFinish},
	}, res.Failures())

	res = inst.Validate(api.PhaseAdvance, api.DirectionForward)
	assert.True(t, res.IsValid())
}

func TestValidateActivityWindow(t *testing.T) {
	ctx := context.Background()
	inst := flow.New(gatedFlow(t))
	assert.NoError(t, inst.Begin(ctx))

	res := inst.Validate(api.PhaseAdvance, api.DirectionForward)
	assert.Equal(t, []api.Failure{
		{Activity: "cart", Property: "items", Phase: api.PhaseAdvance},
	}, res.Failures())
	assert.True(t,
		inst.Validate(api.PhaseAdvance, api.DirectionBackward).IsValid(),
	)

	res = inst.Validate(api.PhaseActivate, api.DirectionNone)
	assert.Equal(t, []api.Name{"coupon"}, res.Properties())
	assert.ErrorIs(t, res.Err(), api.ErrValidation)
}

func TestValidateOverridePhase(t *testing.T) {
	inst := flow.New(gatedFlow(t))
	assert.NoError(t, inst.Begin(context.Background()))
	inst.SetOverride("items", &api.Override{Phase: api.PhaseOptional})

	res := inst.Validate(api.PhaseAdvance, api.DirectionForward)
	assert.True(t, res.IsValid())
	assert.NoError(t, inst.Next(context.Background()))

	act, _ := inst.CurrentActivity()
	assert.Equal(t, "shipping", act.Name)
}
