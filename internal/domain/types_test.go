package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeIsValid(t *testing.T) {
	assert.True(t, ComputeCams.IsValid())
	assert.True(t, ComputeDbxaas.IsValid())
	assert.False(t, Compute("unknown").IsValid())
}

func TestStateIsValid(t *testing.T) {
	valid := []State{StateWaiting, StateQueued, StateRunning, StateSuccess, StateFailed, StateDisabled}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "state=%s", s)
	}

	assert.False(t, State("unknown").IsValid())
}

func TestStateIsTerminal(t *testing.T) {
	assert.True(t, StateSuccess.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.True(t, StateDisabled.IsTerminal())
	assert.False(t, StateWaiting.IsTerminal())
	assert.False(t, StateQueued.IsTerminal())
	assert.False(t, StateRunning.IsTerminal())
}

func TestStateCanTransitionHappyPath(t *testing.T) {
	assert.True(t, StateWaiting.CanTransition(StateQueued))
	assert.True(t, StateQueued.CanTransition(StateRunning))
	assert.True(t, StateRunning.CanTransition(StateSuccess))
	assert.True(t, StateRunning.CanTransition(StateFailed))
}

func TestStateCanTransitionDisabledIsUniversal(t *testing.T) {
	for _, s := range []State{StateWaiting, StateQueued, StateRunning, StateSuccess, StateFailed} {
		assert.True(t, s.CanTransition(StateDisabled), "state=%s", s)
	}
}

func TestStateCanTransitionReenableFromDisabled(t *testing.T) {
	assert.True(t, StateDisabled.CanTransition(StateWaiting))
	assert.False(t, StateDisabled.CanTransition(StateQueued))
	assert.False(t, StateDisabled.CanTransition(StateRunning))
}

func TestStateCanTransitionRejectsSkips(t *testing.T) {
	assert.False(t, StateWaiting.CanTransition(StateRunning))
	assert.False(t, StateQueued.CanTransition(StateSuccess))
	assert.False(t, StateWaiting.CanTransition(StateSuccess))
}

func TestStateCanTransitionTerminalStatesAreDeadEnds(t *testing.T) {
	assert.False(t, StateSuccess.CanTransition(StateWaiting))
	assert.False(t, StateFailed.CanTransition(StateQueued))
}

func TestRoleIsValid(t *testing.T) {
	valid := []Role{RoleDisable, RolePause, RolePublish, RoleUpdate}
	for _, r := range valid {
		assert.True(t, r.IsValid(), "role=%s", r)
	}

	assert.False(t, Role("unknown").IsValid())
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "publish", RolePublish.String())
}
