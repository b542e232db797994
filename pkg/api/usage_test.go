package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/api"
)

var allUsages = []api.Usage{
	api.UsageInternalState, api.UsageUse, api.UsageIO,
	api.UsageSuppliesIfMissing, api.UsageConsume, api.UsageInitialize,
}

var allScopes = []api.Scope{
	api.ScopeActivityLocal, api.ScopeFlowLocal, api.ScopeRequestFlowLocal,
	api.ScopeGlobal,
}

func TestScopeUsagePairs(t *testing.T) {
	for _, s := range allScopes {
		for _, u := range allUsages {
			err := s.CheckUsage(u)
			if s.Allows(u) {
				assert.NoError(t, err, "%s/%s", s, u)
				continue
			}
			assert.ErrorIs(t, err, api.ErrUsageNotAllowed, "%s/%s", s, u)
			assert.ErrorIs(t, err, api.ErrConfiguration, "%s/%s", s, u)
		}
	}
	assert.False(t, api.ScopeGlobal.Allows(api.UsageInternalState))
	assert.False(t, api.ScopeActivityLocal.Allows(api.UsageConsume))
}

func TestUnknownScopeAndUsage(t *testing.T) {
	err := api.Scope("session").CheckUsage(api.UsageUse)
	assert.ErrorIs(t, err, api.ErrUnknownScope)
	assert.ErrorIs(t, err, api.ErrConfiguration)

	err = api.ScopeFlowLocal.CheckUsage("borrow")
	assert.ErrorIs(t, err, api.ErrUnknownUsage)
	assert.True(t, api.ScopeGlobal.IsDeprecated())
}

func TestUsageLiftOrder(t *testing.T) {
	assert.True(t, api.UsageInternalState.CanLiftTo(api.UsageInitialize))
	assert.True(t, api.UsageUse.CanLiftTo(api.UsageConsume))
	assert.False(t, api.UsageIO.CanLiftTo(api.UsageConsume))
	assert.False(t, api.UsageConsume.CanLiftTo(api.UsageUse))

	assert.True(t, api.CompatibleUsages(api.UsageConsume, api.UsageUse))
	assert.False(t, api.CompatibleUsages(api.UsageConsume, api.UsageIO))
	assert.True(t, api.CompatibleUsages("", api.UsageConsume))
}

func TestSurvivingUsage(t *testing.T) {
	assert.Equal(t, api.UsageIO,
		api.SurvivingUsage(api.UsageUse, api.UsageIO))
	assert.Equal(t, api.UsageIO,
		api.SurvivingUsage(api.UsageIO, api.UsageUse))
	assert.Equal(t, api.UsageConsume,
		api.SurvivingUsage(api.UsageConsume, api.UsageInternalState))
	assert.Equal(t, api.UsageUse, api.SurvivingUsage("", api.UsageUse))
}

func TestDefaultAccess(t *testing.T) {
	assert.Equal(t, api.AccessNoAccess,
		api.DefaultAccess(api.UsageInternalState))
	assert.Equal(t, api.AccessWriteOnly, api.DefaultAccess(api.UsageUse))
	assert.Equal(t, api.AccessNoRestrictions, api.DefaultAccess(api.UsageIO))
	assert.Equal(t, api.AccessReadOnly,
		api.DefaultAccess(api.UsageInitialize))

	assert.True(t, api.AccessReadOnly.CanRead())
	assert.False(t, api.AccessReadOnly.CanWrite())
	assert.False(t, api.AccessWriteOnly.CanRead())
	assert.False(t, api.AccessNoAccess.CanWrite())
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, api.DirectionForward, api.DirectionOf(0, 2))
	assert.Equal(t, api.DirectionBackward, api.DirectionOf(2, 1))
	assert.Equal(t, api.DirectionNone, api.DirectionOf(1, 1))
}
