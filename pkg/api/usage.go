package api

import (
	"fmt"

	"github.com/kode4food/argyll/wizard/pkg/util"
)

type (
	// Usage governs whether externally set values are honored, whether
	// changes are copied back on success, and whether the value is cleared
	// when the flow (re)initializes
	Usage string

	usageFlags struct {
		settable bool
		copyBack bool
		clean    bool
		output   bool
	}
)

const (
	UsageInternalState     Usage = "internalState"
	UsageUse               Usage = "use"
	UsageIO                Usage = "io"
	UsageSuppliesIfMissing Usage = "suppliesIfMissing"
	UsageConsume           Usage = "consume"
	UsageInitialize        Usage = "initialize"
)

var usages = map[Usage]usageFlags{
	UsageInternalState:     {clean: true},
	UsageUse:               {settable: true},
	UsageIO:                {settable: true, copyBack: true, output: true},
	UsageSuppliesIfMissing: {settable: true, copyBack: true, output: true},
	UsageConsume:           {settable: true, clean: true},
	UsageInitialize:        {copyBack: true, clean: true, output: true},
}

// usageLifts is the lift order used when merging usages; consume is a leaf
// reachable only from use
var usageLifts = util.StateTransitions[Usage]{
	UsageInternalState:     util.SetOf(UsageUse),
	UsageUse:               util.SetOf(UsageIO, UsageConsume),
	UsageIO:                util.SetOf(UsageSuppliesIfMissing),
	UsageSuppliesIfMissing: util.SetOf(UsageInitialize),
	UsageInitialize:        {},
	UsageConsume:           {},
}

// Validate returns an error wrapping ErrUnknownUsage for undeclared usages
func (u Usage) Validate() error {
	if _, ok := usages[u]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUsage, u)
	}
	return nil
}

// IsExternallySettable reports whether values found outside the flow's own
// namespace are honored
func (u Usage) IsExternallySettable() bool {
	return usages[u].settable
}

// CopiesBack reports whether changes are copied back to the global
// namespace when the flow succeeds. Usages that do not copy back are
// read-only and may not carry persisters
func (u Usage) CopiesBack() bool {
	return usages[u].copyBack
}

// CleansOnInitialization reports whether found values are removed from
// every namespace they were found in when the property initializes
func (u Usage) CleansOnInitialization() bool {
	return usages[u].clean
}

// IsOutput reports whether the flow exposes the value to its callers
func (u Usage) IsOutput() bool {
	return usages[u].output
}

// IsReadOnly reports whether changes made by the flow must not propagate
func (u Usage) IsReadOnly() bool {
	return !u.CopiesBack()
}

// CanLiftTo reports whether u can be lifted to other in the usage order
func (u Usage) CanLiftTo(other Usage) bool {
	return usageLifts.Reaches(u, other)
}

// CompatibleUsages reports whether two usages may describe the same
// property. An empty usage is compatible with everything
func CompatibleUsages(a, b Usage) bool {
	if a == "" || b == "" {
		return true
	}
	return a.CanLiftTo(b) || b.CanLiftTo(a)
}

// SurvivingUsage returns the more restrictive of two compatible usages,
// which is the one higher in the lift order
func SurvivingUsage(a, b Usage) Usage {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case a.CanLiftTo(b):
		return b
	default:
		return a
	}
}
