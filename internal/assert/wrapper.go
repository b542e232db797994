package assert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/internal/config"
	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/flow"
)

// Wrapper wraps testify assertions with wizard-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
}

// New creates a new test assertion wrapper with testify assertions plus
// wizard-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
	}
}

// FlowState asserts the lifecycle state of a flow instance
func (w *Wrapper) FlowState(inst *flow.Instance, expected api.LifecycleState) {
	w.Helper()
	w.Equal(expected, inst.State(), "flow %s", inst.LookupKey())
}

// CurrentActivity asserts the name of the current activity
func (w *Wrapper) CurrentActivity(inst *flow.Instance, expected string) {
	w.Helper()
	a, ok := inst.CurrentActivity()
	if !w.True(ok, "flow %s has no current activity", inst.LookupKey()) {
		return
	}
	w.Equal(expected, a.Name)
}

// PropertyEquals asserts that a property is visible with the expected
// value
func (w *Wrapper) PropertyEquals(
	inst *flow.Instance, name api.Name, expected any,
) {
	w.Helper()
	v, ok, err := inst.Get(name)
	w.NoError(err, "failed to get property: %s", name)
	w.True(ok, "flow should have property: %s", name)
	w.Equal(expected, v)
}

// ValidationFails asserts that err is a validation failure naming exactly
// the given properties
func (w *Wrapper) ValidationFails(err error, props ...api.Name) {
	w.Helper()
	var verr *api.ValidationError
	if !w.True(errors.As(err, &verr), "expected validation error: %v", err) {
		return
	}
	w.ElementsMatch(props, verr.Result.Properties())
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.NotEmpty(cfg.Redis.Addr)
	w.True(cfg.DefinitionCacheSize > 0)
	w.True(cfg.ScriptCacheSize > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}
