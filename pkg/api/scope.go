package api

import (
	"fmt"

	"github.com/kode4food/argyll/wizard/pkg/util"
)

// Scope governs which namespace holds a property's value relative to the
// activity, flow and session boundaries
type Scope string

const (
	// ScopeActivityLocal values live in one activity of one flow instance
	ScopeActivityLocal Scope = "activityLocal"

	// ScopeFlowLocal values live in one flow instance
	ScopeFlowLocal Scope = "flowLocal"

	// ScopeRequestFlowLocal values live in one flow instance and are cleared
	// by the end-of-request hook
	ScopeRequestFlowLocal Scope = "requestFlowLocal"

	// ScopeGlobal values live in the global namespace.
	//
	// Deprecated: global properties leak between flows; prefer flowLocal
	// with an externally settable usage
	ScopeGlobal Scope = "global"
)

var scopeUsages = map[Scope]util.Set[Usage]{
	ScopeActivityLocal: util.SetOf(
		UsageInternalState, UsageUse, UsageIO, UsageInitialize,
	),
	ScopeFlowLocal: util.SetOf(
		UsageInternalState, UsageUse, UsageIO, UsageSuppliesIfMissing,
		UsageConsume, UsageInitialize,
	),
	ScopeRequestFlowLocal: util.SetOf(
		UsageInternalState, UsageUse, UsageIO, UsageInitialize,
	),
	ScopeGlobal: util.SetOf(
		UsageUse, UsageIO, UsageSuppliesIfMissing, UsageConsume,
		UsageInitialize,
	),
}

// Validate returns an error wrapping ErrUnknownScope when s is not one of
// the declared scopes
func (s Scope) Validate() error {
	if _, ok := scopeUsages[s]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScope, s)
	}
	return nil
}

// Allows reports whether u is a legal usage for properties of this scope
func (s Scope) Allows(u Usage) bool {
	allowed, ok := scopeUsages[s]
	return ok && allowed.Contains(u)
}

// IsDeprecated reports whether the scope should no longer be declared
func (s Scope) IsDeprecated() bool {
	return s == ScopeGlobal
}

// CheckUsage validates the scope and the scope/usage pairing
func (s Scope) CheckUsage(u Usage) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}
	if !s.Allows(u) {
		return fmt.Errorf("%w: %s/%s", ErrUsageNotAllowed, s, u)
	}
	return nil
}
