package assert_test

import (
	"context"
	"testing"

	"github.com/kode4food/argyll/wizard/internal/assert"
	"github.com/kode4food/argyll/wizard/internal/config"
	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/builder"
	"github.com/kode4food/argyll/wizard/pkg/flow"
)

func TestNew(t *testing.T) {
	as := assert.New(t)
	as.NotNil(as.Assertions)
	as.Equal(t, as.T)
}

func TestFlowHelpers(t *testing.T) {
	as := assert.New(t)

	def, err := builder.NewFlow("survey").
		WithProperties(
			builder.NewProperty("rating").
				WithUsage(api.UsageIO).
				WithShape(api.Scalar(api.KindInt)).
				WithAutoCreate(false).
				WithPhase(api.PhaseAdvance),
		).
		WithActivities(
			builder.NewActivity("rate").WithProperties(
				builder.NewProperty("rating").WithPhase(api.PhaseAdvance),
			),
			builder.NewActivity("thanks"),
		).
		Build()
	as.NoError(err)

	inst := flow.New(def)
	ctx := context.Background()
	as.NoError(inst.Begin(ctx))
	as.FlowState(inst, api.StateStarted)
	as.CurrentActivity(inst, "rate")
	as.ValidationFails(inst.Next(ctx), "rating")

	as.NoError(inst.Set("rating", 5))
	as.PropertyEquals(inst, "rating", 5)
	as.NoError(inst.Next(ctx))
	as.CurrentActivity(inst, "thanks")
}

func TestConfigHelpers(t *testing.T) {
	as := assert.New(t)
	cfg := config.NewDefaultConfig()
	as.ConfigValid(cfg)

	cfg.ScriptCacheSize = 0
	as.ConfigInvalid(cfg, "cache size")
}
