package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/wizard/pkg/util"
)

type testState string

const (
	stateInit     testState = "init"
	stateRunning  testState = "running"
	stateComplete testState = "complete"
	stateFailed   testState = "failed"
)

var testTransitions = util.StateTransitions[testState]{
	stateInit:     util.SetOf(stateRunning, stateFailed),
	stateRunning:  util.SetOf(stateComplete, stateFailed),
	stateComplete: {},
	stateFailed:   {},
}

func TestCanTransition(t *testing.T) {
	assert.True(t, testTransitions.CanTransition(stateInit, stateRunning))
	assert.True(t, testTransitions.CanTransition(stateRunning, stateFailed))
	assert.False(t, testTransitions.CanTransition(stateInit, stateComplete))
	assert.False(t, testTransitions.CanTransition(stateComplete, stateInit))
	assert.False(t, testTransitions.CanTransition("unknown", stateRunning))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, testTransitions.IsTerminal(stateInit))
	assert.True(t, testTransitions.IsTerminal(stateComplete))
	assert.True(t, testTransitions.IsTerminal(stateFailed))
	assert.False(t, testTransitions.IsTerminal("unknown"))
}

func TestReaches(t *testing.T) {
	assert.True(t, testTransitions.Reaches(stateInit, stateInit))
	assert.True(t, testTransitions.Reaches(stateInit, stateComplete))
	assert.False(t, testTransitions.Reaches(stateComplete, stateInit))
	assert.False(t, testTransitions.Reaches(stateRunning, stateInit))
}
