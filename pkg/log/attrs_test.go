package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

type errStub string

func TestFlowAttrs(t *testing.T) {
	assertAttrEqual(t, log.FlowKey("key-123"), "flow_key", "key-123")
	assertAttrEqual(t, log.FlowType("signup"), "flow_type", "signup")
	assertAttrEqual(t, log.Activity("billing"), "activity", "billing")
	assertAttrEqual(t, log.State(api.StateStarted), "state", "started")
}

func TestPropertyAttrs(t *testing.T) {
	assertAttrEqual(t, log.Property(api.Name("user")), "property", "user")
	assertAttrEqual(t, log.Namespace("key.billing"), "namespace", "key.billing")
}

func TestError(t *testing.T) {
	assertAttrEqual(t, log.Error(nil), "error", "")
	assertAttrEqual(t, log.Error(errStub("boom")), "error", "boom")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
