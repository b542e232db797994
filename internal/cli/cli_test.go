package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/argyll/wizard/internal/cli"
	"github.com/kode4food/argyll/wizard/internal/config"
	"github.com/kode4food/argyll/wizard/internal/snapshot"
	"github.com/kode4food/argyll/wizard/pkg/api"
)

const checkout = `
flows:
  - name: checkout
    page: checkout-done
    properties:
      - name: price
        usage: io
        shape: float
      - name: qty
        usage: io
        shape: integer
        initial: "1"
      - name: total
        usage: io
        shape: float
        dependencies: [price, qty]
        script: return price * qty
    activities:
      - name: cartReview
        page: cart
        properties:
          - name: qty
            phase: advance
      - name: payment
        properties:
          - name: card
            usage: io
            shape: string
            autoCreate: false
            phase: advance
            persist: true
      - name: receipt
        nextFlow: survey
  - name: survey
    page: thanks
    activities:
      - name: ask
`

func writeDefinitions(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithLog(t, args...)
	return out, err
}

func executeWithLog(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := cli.NewRootCommand()
	assert.Equal(t, cli.Name, cmd.Use)
	for _, name := range []string{"validate", "run"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	flag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestValidate(t *testing.T) {
	path := writeDefinitions(t, checkout)
	out, err := execute(t, "validate", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "checkout: 3 activities")
	assert.Contains(t, out, "survey: 1 activities")
	assert.Contains(t, out, "ok: 2 flows")
}

func TestValidateMissingFlow(t *testing.T) {
	doc := strings.Replace(checkout, "nextFlow: survey", "nextFlow: nope", 1)
	_, err := execute(t, "validate", writeDefinitions(t, doc))
	assert.ErrorIs(t, err, api.ErrInvalidDefinition)
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeDefinitions(t, checkout)
	_, err := execute(t, "--log-level", "loud", "validate", path)
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestRunToCompletion(t *testing.T) {
	path := writeDefinitions(t, checkout)
	out, err := execute(t, "run", path, "checkout",
		"--set", "price=2.5", "--set", "qty=2", "--set", "card=4242",
	)
	assert.NoError(t, err)
	assert.Contains(t, out, "checkout/cartReview: cart")
	assert.Contains(t, out, "checkout/payment")
	assert.Contains(t, out, "survey/ask")
	assert.Contains(t, out, "survey successful: thanks")
}

func TestRunStopsOnMissingValue(t *testing.T) {
	path := writeDefinitions(t, checkout)
	out, err := execute(t, "run", path, "checkout", "--set", "price=1")
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.Contains(t, out, "card")
	assert.NotContains(t, out, "survey/ask")
}

func TestRunRejectsBadAssignment(t *testing.T) {
	path := writeDefinitions(t, checkout)
	_, err := execute(t, "run", path, "checkout", "--set", "=1")
	assert.ErrorIs(t, err, cli.ErrInvalidAssignment)
}

func TestRunUnknownFlow(t *testing.T) {
	path := writeDefinitions(t, checkout)
	_, err := execute(t, "run", path, "refund")
	assert.ErrorIs(t, err, api.ErrFlowNotFound)
}

func TestRunPersistsToRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	t.Setenv("REDIS_ADDR", server.Addr())

	path := writeDefinitions(t, checkout)
	_, err = execute(t, "run", path, "checkout", "--persist",
		"--set", "price=3", "--set", "card=4242",
	)
	require.NoError(t, err)

	var persisted []string
	for _, k := range server.Keys() {
		if strings.HasPrefix(k, "wizard:flow:checkout:") {
			persisted = append(persisted, k)
		}
	}
	require.Len(t, persisted, 1)
	assert.Equal(t, `"4242"`, server.HGet(persisted[0], "card"))
}

func TestRunSnapshotToBucket(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SNAPSHOT_BUCKET_URL", "file://"+dir)

	path := writeDefinitions(t, checkout)
	out, err := execute(t, "run", path, "checkout",
		"--set", "price=3", "--set", "card=4242", "--snapshot", "s1",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "snapshot saved: s1")
	assert.FileExists(t, filepath.Join(dir, "wizard", "s1.json"))

	_, err = execute(t, "run", path, "checkout",
		"--set", "price=3", "--set", "card=4242", "--restore", "s1",
	)
	assert.NoError(t, err)

	_, err = execute(t, "run", path, "checkout", "--restore", "missing")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestRunFiltersEvents(t *testing.T) {
	path := writeDefinitions(t, checkout)
	_, logged, err := executeWithLog(t, "--log-level", "info",
		"run", path, "checkout",
		"--set", "price=3", "--set", "card=4242",
		"--events", "state_changed", "--event-flows", "survey",
	)
	require.NoError(t, err)

	var seen []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logged), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "Flow event" {
			seen = append(seen, entry)
		}
	}
	require.NotEmpty(t, seen)
	for _, entry := range seen {
		assert.Equal(t, "state_changed", entry["type"])
		assert.Equal(t, "survey", entry["flow_type"])
	}

	_, err = execute(t, "run", path, "checkout", "--events", "exploded")
	assert.ErrorIs(t, err, cli.ErrUnknownEventType)
}
