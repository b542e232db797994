package flow

import "github.com/kode4food/argyll/wizard/pkg/api"

type (
	// EventType names a lifecycle occurrence
	EventType string

	// Event describes one lifecycle occurrence of a flow instance
	Event struct {
		Type      EventType
		LookupKey string
		FlowType  string
		From      api.LifecycleState
		To        api.LifecycleState
		Activity  string
	}

	// Listener receives every Event raised by an instance, synchronously
	Listener func(Event)
)

const (
	EventStateChanged     EventType = "state_changed"
	EventActivitySelected EventType = "activity_selected"
	EventMorphed          EventType = "morphed"
	EventRequestEnded     EventType = "request_ended"
)

func (i *Instance) emit(typ EventType, from, to api.LifecycleState) {
	if i.listener == nil {
		return
	}
	ev := Event{
		Type:      typ,
		LookupKey: i.lookupKey,
		FlowType:  i.def.Name,
		From:      from,
		To:        to,
	}
	if a, ok := i.CurrentActivity(); ok {
		ev.Activity = a.Name
	}
	i.listener(ev)
}
