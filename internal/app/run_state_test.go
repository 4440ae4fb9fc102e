package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bulkload/internal/adapters/log"
)

func TestRunState_String(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
	}{
		{StateInitializing, "Initializing"},
		{StatePlanning, "Planning"},
		{StateChunkInFlight, "ChunkInFlight"},
		{StateChunkRetry, "ChunkRetry"},
		{StateCheckpointing, "Checkpointing"},
		{StateValidating, "Validating"},
		{StateFinalizing, "Finalizing"},
		{StateDone, "Done"},
		{StatePaused, "Paused"},
		{StateInterrupted, "Interrupted"},
		{RunState(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestRunState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StatePaused.Terminal())
	assert.True(t, StateInterrupted.Terminal())
	assert.False(t, StateCheckpointing.Terminal())
}

func TestRunLifecycle_ValidTransitions(t *testing.T) {
	events := &recordingEvents{}
	l := newRunLifecycle(log.NewNoopLogger(), events)
	assert.Equal(t, StateInitializing, l.State())

	path := []RunState{
		StatePlanning,
		StateChunkInFlight,
		StateChunkRetry,
		StateCheckpointing,
		StateChunkInFlight,
		StateCheckpointing,
		StateValidating,
		StateFinalizing,
		StateDone,
	}
	for _, s := range path {
		require.NoError(t, l.TransitionTo(s, "test"))
	}

	assert.Equal(t, StateDone, l.State())
	assert.Equal(t, path, events.states)
}

func TestRunLifecycle_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from []RunState
		to   RunState
	}{
		{"skip planning", nil, StateChunkInFlight},
		{"pause before checkpoint", []RunState{StatePlanning, StateChunkInFlight}, StatePaused},
		{"retry twice", []RunState{StatePlanning, StateChunkInFlight, StateChunkRetry}, StateChunkRetry},
		{"leave done", []RunState{StatePlanning, StateFinalizing, StateDone}, StatePlanning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newRunLifecycle(log.NewNoopLogger(), nil)
			for _, s := range tt.from {
				require.NoError(t, l.TransitionTo(s, "setup"))
			}
			err := l.TransitionTo(tt.to, "test")
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}
