package events

import (
	"github.com/kode4food/argyll/wizard/pkg/flow"
	"github.com/kode4food/argyll/wizard/pkg/util"
)

// Filter decides whether an event is delivered
type Filter func(flow.Event) bool

// FilterTypes accepts events of the given types
func FilterTypes(types ...flow.EventType) Filter {
	lookup := util.SetOf(types...)
	return func(ev flow.Event) bool {
		return lookup.Contains(ev.Type)
	}
}

// FilterFlowType accepts events of instances of one flow type
func FilterFlowType(flowType string) Filter {
	return func(ev flow.Event) bool {
		return ev.FlowType == flowType
	}
}

// OrFilters accepts events any of the filters accepts
func OrFilters(filters ...Filter) Filter {
	return func(ev flow.Event) bool {
		for _, f := range filters {
			if f(ev) {
				return true
			}
		}
		return false
	}
}

// AndFilters accepts events every filter accepts
func AndFilters(filters ...Filter) Filter {
	return func(ev flow.Event) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}
