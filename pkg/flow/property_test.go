package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/builder"
	"github.com/kode4food/argyll/wizard/pkg/codec"
	"github.com/kode4food/argyll/wizard/pkg/flow"
	"github.com/kode4food/argyll/wizard/pkg/store"
)

func TestExternalAccess(t *testing.T) {
	ctx := context.Background()
	def := mustFlow(t, builder.NewFlow("f").
		WithProperties(
			builder.NewProperty("secret").
				WithUsage(api.UsageInternalState).
				WithInitial(`"s"`),
			builder.NewProperty("input").
				WithShape(api.Scalar(api.KindString)),
			builder.NewProperty("result").
				WithUsage(api.UsageInitialize).
				WithInitial(`"r"`),
			builder.NewProperty("both").
				WithUsage(api.UsageIO).
				WithShape(api.Scalar(api.KindInt)),
		).
		WithActivities(builder.NewActivity("a")))
	inst := flow.New(def)
	assert.NoError(t, inst.Begin(ctx))

	_, _, err := inst.Get("secret")
	assert.ErrorIs(t, err, api.ErrAccessDenied)
	assert.ErrorIs(t, inst.Set("secret", "x"), api.ErrAccessDenied)

	assert.NoError(t, inst.Set("input", "hello"))
	_, _, err = inst.Get("input")
	assert.ErrorIs(t, err, api.ErrAccessDenied)

	v, ok, err := inst.Get("result")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r", v)
	assert.ErrorIs(t, inst.Set("result", "x"), api.ErrAccessDenied)

	assert.NoError(t, inst.Set("both", 7))
	n, err := flow.GetAs[int](inst, "both")
	assert.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = flow.GetAs[string](inst, "both")
	assert.ErrorIs(t, err, api.ErrNotDeserializable)

	_, _, err = inst.Get("unknown")
	assert.ErrorIs(t, err, api.ErrPropertyNotFound)
}

func TestSetRaw(t *testing.T) {
	def := mustFlow(t, builder.NewFlow("f").
		WithProperties(builder.NewProperty("count").
			WithUsage(api.UsageIO).
			WithShape(api.Scalar(api.KindInt))).
		WithActivities(builder.NewActivity("a")))
	inst := flow.New(def, flow.WithLookupKey("k"))

	err := inst.SetRaw("count", `"many"`)
	assert.ErrorIs(t, err, api.ErrNotDeserializable)

	assert.NoError(t, inst.SetRaw("count", "12"))
	n, err := flow.GetAs[int](inst, "count")
	assert.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestAutoCreate(t *testing.T) {
	def := mustFlow(t, builder.NewFlow("f").
		WithProperties(
			builder.NewProperty("flag").
				WithUsage(api.UsageIO).
				WithShape(api.Scalar(api.KindBool)),
			builder.NewProperty("tags").
				WithUsage(api.UsageIO).
				WithShape(api.SetOf(api.Scalar(api.KindString))).
				WithAutoCreate(true),
			builder.NewProperty("any").WithUsage(api.UsageIO),
		).
		WithActivities(builder.NewActivity("a")))
	inst := flow.New(def, flow.WithLookupKey("k"))

	v, ok, err := inst.Get("flag")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, false, v)
	raw, _ := inst.Store().Get(store.NewKey("k", "flag"))
	assert.Equal(t, "false", raw)

	v, ok, err = inst.Get("tags")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[any]struct{}{}, v)

	_, ok, err = inst.Get("any")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestProviderAndDependencies(t *testing.T) {
	calls := 0
	total := api.ProviderFunc(func(ac api.ActivityContext, _ *api.Descriptor) (
		any, error,
	) {
		calls++
		v, _, err := ac.Property("price")
		if err != nil || v == nil {
			return nil, err
		}
		return v.(int) * 2, nil
	}).Provider()

	def := mustFlow(t, builder.NewFlow("f").
		WithProperties(
			builder.NewProperty("price").
				WithUsage(api.UsageIO).
				WithShape(api.Scalar(api.KindInt)).
				WithAutoCreate(false),
			builder.NewProperty("total").
				WithUsage(api.UsageIO).
				WithShape(api.Scalar(api.KindInt)).
				WithProvider(total).
				WithDependencies("price"),
			builder.NewProperty("label").
				WithUsage(api.UsageIO).
				WithShape(api.Scalar(api.KindString)).
				WithDependencies("total"),
		).
		WithActivities(builder.NewActivity("a")))
	inst := flow.New(def, flow.WithLookupKey("k"))

	assert.NoError(t, inst.Set("price", 5))
	n, err := flow.GetAs[int](inst, "total")
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
	n, _ = flow.GetAs[int](inst, "total")
	assert.Equal(t, 10, n)
	assert.Equal(t, 1, calls)

	assert.NoError(t, inst.Set("label", "ten"))
	assert.NoError(t, inst.Set("price", 8))
	assert.False(t, inst.Store().Has(store.NewKey("k", "total")))
	assert.True(t, inst.Store().Has(store.NewKey("k", "label")))

	n, _ = flow.GetAs[int](inst, "total")
	assert.Equal(t, 16, n)
	assert.Equal(t, 2, calls)
}

func TestActivityContext(t *testing.T) {
	ctx := context.Background()
	var seen api.ActivityContext
	def := mustFlow(t, builder.NewFlow("f").WithActivities(
		builder.NewActivity("a").
			WithProperties(builder.NewProperty("note").
				WithScopeAndUsage(
					api.ScopeActivityLocal, api.UsageInternalState,
				).
				WithShape(api.Scalar(api.KindString))).
			OnActivate(func(ac api.ActivityContext, _ api.Direction) (
				bool, error,
			) {
				seen = ac
				return false, ac.SetProperty("note", "hidden")
			}),
	))
	inst := flow.New(def, flow.WithLookupKey("k"))
	assert.NoError(t, inst.Begin(ctx))

	assert.Equal(t, "a", seen.Activity())
	assert.Equal(t, "k", seen.LookupKey())
	assert.Equal(t, "f", seen.FlowType())
	v, ok, err := seen.Property("note")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hidden", v)

	raw, _ := inst.Store().Get(store.NewKey("k.a", "note"))
	assert.Equal(t, `"hidden"`, raw)

	_, _, err = inst.Get("note")
	assert.ErrorIs(t, err, api.ErrAccessDenied)
}

func TestOverrides(t *testing.T) {
	initial := `"patched"`
	def := mustFlow(t, builder.NewFlow("f").
		WithProperties(builder.NewProperty("mode").
			WithUsage(api.UsageInternalState).
			WithInitial(`"default"`)).
		WithActivities(builder.NewActivity("a")))

	inst := flow.New(def, flow.WithOverrides(map[api.Name]*api.Override{
		"mode": {Usage: api.UsageIO, Initial: &initial},
	}))
	assert.NoError(t, inst.Begin(context.Background()))

	v, ok, err := inst.Get("mode")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "patched", v)

	d, _ := def.Schema.Get("mode")
	assert.Equal(t, api.UsageInternalState, d.Usage)
}

func TestSetRejectsMismatchedValue(t *testing.T) {
	ctx := context.Background()
	def := mustFlow(t, builder.NewFlow("profile").
		WithProperties(builder.NewProperty("age").
			WithUsage(api.UsageIO).
			WithShape(api.Scalar(api.KindInt))).
		WithActivities(builder.NewActivity("a")))
	inst := flow.New(def, flow.WithLookupKey("k"))
	assert.NoError(t, inst.Begin(ctx))
	assert.NoError(t, inst.Set("age", 30))

	err := inst.Set("age", "not a number")
	assert.ErrorIs(t, err, codec.ErrUnexpectedValue)

	inst.Store().ClearCache()
	age, err := flow.GetAs[int](inst, "age")
	assert.NoError(t, err)
	assert.Equal(t, 30, age)
}
