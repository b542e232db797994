package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/api"
)

func boolPtr(b bool) *bool { return &b }

func TestMergeUnionsAndFillsGaps(t *testing.T) {
	a := &api.Descriptor{
		Name:       "user",
		Alternates: []api.Name{"member"},
		Scope:      api.ScopeFlowLocal,
		Usage:      api.UsageUse,
		Shape:      api.Scalar(api.KindString),
	}
	b := &api.Descriptor{
		Name:         "user",
		Alternates:   []api.Name{"account"},
		Usage:        api.UsageIO,
		Phase:        api.PhaseFinish,
		Initial:      `"guest"`,
		AutoCreate:   boolPtr(true),
		Dependencies: []api.Name{"tenant"},
	}

	m, ok := a.Merge(b)
	assert.True(t, ok)
	assert.Equal(t, []api.Name{"account", "member"}, m.Alternates)
	assert.Equal(t, api.UsageIO, m.Usage)
	assert.Equal(t, api.AccessNoRestrictions, m.Access)
	assert.Equal(t, api.PhaseFinish, m.Phase)
	assert.Equal(t, api.ScopeFlowLocal, m.Scope)
	assert.Equal(t, `"guest"`, m.Initial)
	assert.Equal(t, []api.Name{"tenant"}, m.Dependencies)
	assert.True(t, m.IsAutoCreate())

	assert.Equal(t, []api.Name{"member"}, a.Alternates)
}

func TestMergeIdempotent(t *testing.T) {
	a := &api.Descriptor{
		Name:  "count",
		Scope: api.ScopeFlowLocal,
		Usage: api.UsageUse,
		Shape: api.SetOf(api.Scalar(api.KindInt)),
	}
	b := &api.Descriptor{
		Name:       "count",
		Alternates: []api.Name{"total"},
		Usage:      api.UsageSuppliesIfMissing,
		Shape:      api.SetOf(api.Scalar(api.KindLong)),
	}

	once, ok := a.Merge(b)
	assert.True(t, ok)
	twice, ok := once.Merge(b)
	assert.True(t, ok)
	assert.Equal(t, once, twice)
}

func TestNotMergeable(t *testing.T) {
	p1 := api.ProviderFunc(func(api.ActivityContext, *api.Descriptor) (
		any, error,
	) {
		return 1, nil
	}).Provider()
	p2 := api.ProviderFunc(func(api.ActivityContext, *api.Descriptor) (
		any, error,
	) {
		return 2, nil
	}).Provider()

	base := &api.Descriptor{Name: "x", Provider: p1}
	assert.True(t, base.IsMergeable(&api.Descriptor{Name: "x", Provider: p1}))
	assert.False(t, base.IsMergeable(&api.Descriptor{Name: "x", Provider: p2}))

	scoped := &api.Descriptor{Name: "x", Scope: api.ScopeFlowLocal}
	assert.False(t, scoped.IsMergeable(
		&api.Descriptor{Name: "x", Scope: api.ScopeGlobal},
	))

	consume := &api.Descriptor{Name: "x", Usage: api.UsageConsume}
	assert.False(t, consume.IsMergeable(
		&api.Descriptor{Name: "x", Usage: api.UsageIO},
	))

	shaped := &api.Descriptor{Name: "x", Shape: api.Scalar(api.KindBool)}
	m, ok := shaped.Merge(
		&api.Descriptor{Name: "x", Shape: api.Scalar(api.KindString)},
	)
	assert.False(t, ok)
	assert.Same(t, shaped, m)
}

func TestMergeStripsPersisterFromReadOnly(t *testing.T) {
	p := api.PersisterFunc(nil).Persister()
	a := &api.Descriptor{Name: "x", Usage: api.UsageUse}
	b := &api.Descriptor{Name: "x", Persister: p}

	m, ok := a.Merge(b)
	assert.True(t, ok)
	assert.Nil(t, m.Persister)
}

func TestSameRef(t *testing.T) {
	fn := func() {}
	assert.False(t, api.SameRef(fn, fn))
	assert.True(t, api.SameRef(nil, nil))
	x := &api.Shape{}
	assert.True(t, api.SameRef(x, x))
	assert.False(t, api.SameRef(x, &api.Shape{}))
}
