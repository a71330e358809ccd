package protocol

import (
	"testing"

	"AegisGuard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineRejectsRetriggerWhileActive(t *testing.T) {
	m := NewMachine(nil, nil)

	state, _, err := m.Process(TriggerEmergency{}, testCtx())
	require.NoError(t, err)
	require.IsType(t, Triggered{}, state)

	state, effects, err := m.Process(TriggerEmergency{}, testCtx())
	assert.ErrorIs(t, err, ErrEpisodeActive)
	assert.Empty(t, effects)
	assert.IsType(t, Triggered{}, state)
	// The live session survived the rejected trigger.
	assert.Equal(t, state.Session().ID, m.CurrentSession().ID)
}

func TestMachineAllowsRetriggerAfterResolution(t *testing.T) {
	m := NewMachine(nil, nil)

	_, _, err := m.Process(TriggerEmergency{}, testCtx())
	require.NoError(t, err)
	firstID := m.CurrentSession().ID

	_, _, err = m.Process(CancelEmergency{}, testCtx())
	require.NoError(t, err)
	assert.False(t, m.IsActive())

	state, _, err := m.Process(TriggerEmergency{}, testCtx())
	require.NoError(t, err)
	assert.IsType(t, Triggered{}, state)
	assert.NotEqual(t, firstID, m.CurrentSession().ID)
}

func TestMachineIgnoredEventKeepsState(t *testing.T) {
	m := NewMachine(nil, nil)

	state, effects, err := m.Process(AnswerYes{}, testCtx())
	require.NoError(t, err)
	assert.IsType(t, Idle{}, state)
	assert.Empty(t, effects)
}

func TestMachineSubscribeReceivesTransitions(t *testing.T) {
	m := NewMachine(nil, nil)
	ch := m.Subscribe()

	_, _, err := m.Process(TriggerEmergency{}, testCtx())
	require.NoError(t, err)

	select {
	case state := <-ch:
		assert.IsType(t, Triggered{}, state)
	default:
		t.Fatal("expected a broadcast state")
	}
}

func TestMachineSubscribeSkipsIgnoredEvents(t *testing.T) {
	m := NewMachine(nil, nil)
	ch := m.Subscribe()

	_, _, err := m.Process(UserConfirmedSafe{}, testCtx())
	require.NoError(t, err)

	select {
	case <-ch:
		t.Fatal("no-op events must not broadcast")
	default:
	}
}

func TestMachineReset(t *testing.T) {
	m := NewMachine(nil, nil)
	_, _, err := m.Process(TriggerEmergency{}, testCtx())
	require.NoError(t, err)
	require.True(t, m.IsActive())

	m.Reset()

	assert.False(t, m.IsActive())
	assert.IsType(t, Idle{}, m.Current())
	assert.Nil(t, m.CurrentSession())
}

func TestMachineCurrentSession(t *testing.T) {
	m := NewMachine(nil, nil)
	assert.Nil(t, m.CurrentSession())

	_, _, err := m.Process(TriggerEmergency{}, testCtx())
	require.NoError(t, err)

	sess := m.CurrentSession()
	require.NotNil(t, sess)
	assert.True(t, sess.Active)
	assert.Equal(t, models.ThreatUnknown, sess.ThreatLevel)
}
