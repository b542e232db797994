package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/flow"
	"github.com/kode4food/argyll/wizard/pkg/session"
)

func TestStaticPages(t *testing.T) {
	defs := testDefinitions(t)
	def, _ := defs.FlowDefinition("signup")
	pages := session.StaticPages{
		"signup":         "generic",
		"signup.confirm": "confirm-page",
	}

	inst := flow.New(def)
	assert.Equal(t, "generic", pages.Page(inst))

	assert.NoError(t, inst.Begin(context.Background()))
	assert.Equal(t, "generic", pages.Page(inst))
	assert.NoError(t, inst.Next(context.Background()))
	assert.Equal(t, "confirm-page", pages.Page(inst))

	help, _ := defs.FlowDefinition("help")
	assert.Equal(t, "", pages.Page(flow.New(help)))
}
