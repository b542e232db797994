package flow

import (
	"fmt"

	"github.com/kode4food/argyll/wizard/pkg/api"
)

// activityContext is the api.ActivityContext handed to hooks, providers
// and persisters. Reads and writes through it ignore access restrictions
type activityContext struct {
	*Instance
	act *api.ActivityDefinition
}

var _ api.ActivityContext = (*activityContext)(nil)

func (i *Instance) contextFor(a *api.ActivityDefinition) *activityContext {
	return &activityContext{Instance: i, act: a}
}

func (c *activityContext) Activity() string {
	if c.act == nil {
		return ""
	}
	return c.act.Name
}

func (c *activityContext) Property(name api.Name) (any, bool, error) {
	return c.property(c.act, name)
}

func (c *activityContext) SetProperty(name api.Name, value any) error {
	return c.setProperty(c.act, name, value)
}

// NewFlow creates a flow through the session, or as a detached instance
// sharing this one's definition source when there is no session
func (c *activityContext) NewFlow(flowType string) (api.FlowRef, error) {
	if c.handoff != nil {
		inst, err := c.handoff.NewFlow(flowType)
		if err != nil {
			return nil, err
		}
		c.proposed = append(c.proposed, inst)
		return inst, nil
	}
	if c.defs == nil {
		return nil, fmt.Errorf("%w: %q", api.ErrFlowNotFound, flowType)
	}
	def, err := c.defs.FlowDefinition(flowType)
	if err != nil {
		return nil, err
	}
	return New(def, WithDefinitions(c.defs), WithCodec(c.codec)), nil
}
