package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/internal/events"
	"github.com/kode4food/argyll/wizard/pkg/flow"
)

func TestFilters(t *testing.T) {
	morphed := flow.Event{
		Type: flow.EventMorphed, LookupKey: "k1", FlowType: "signup",
	}
	selected := flow.Event{
		Type: flow.EventActivitySelected, LookupKey: "k2", FlowType: "help",
	}

	byType := events.FilterTypes(flow.EventMorphed)
	assert.True(t, byType(morphed))
	assert.False(t, byType(selected))

	byFlowType := events.FilterFlowType("signup")
	assert.True(t, byFlowType(morphed))
	assert.False(t, byFlowType(selected))

	or := events.OrFilters(byType, events.FilterFlowType("help"))
	assert.True(t, or(morphed))
	assert.True(t, or(selected))
	assert.False(t, events.OrFilters()(morphed))

	and := events.AndFilters(byType, byFlowType)
	assert.True(t, and(morphed))
	assert.False(t, and(selected))
	assert.True(t, events.AndFilters()(selected))
}
