package app

import (
	"errors"
	"fmt"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// ErrInvalidTransition is returned when a run is moved to a state that does
// not follow from its current one.
var ErrInvalidTransition = errors.New("bulkload: invalid run state transition")

// RunState represents the state of one ProcessBatches call.
type RunState int

const (
	StateInitializing RunState = iota
	StatePlanning
	StateChunkInFlight
	StateChunkRetry
	StateCheckpointing
	StateValidating
	StateFinalizing
	StateDone
	StatePaused
	StateInterrupted
)

// String returns a human-readable representation of the state.
func (s RunState) String() string {
	switch s {
	case StateInitializing:
		return "Initializing"
	case StatePlanning:
		return "Planning"
	case StateChunkInFlight:
		return "ChunkInFlight"
	case StateChunkRetry:
		return "ChunkRetry"
	case StateCheckpointing:
		return "Checkpointing"
	case StateValidating:
		return "Validating"
	case StateFinalizing:
		return "Finalizing"
	case StateDone:
		return "Done"
	case StatePaused:
		return "Paused"
	case StateInterrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StatePaused || s == StateInterrupted
}

// EventHandler receives run events. Calls are made synchronously from the
// goroutine running ProcessBatches.
type EventHandler interface {
	OnStateChange(previous, current RunState, reason string)
	OnBatch(outcome domain.BatchOutcome, checkpoint domain.Checkpoint)
}

// BaseEventHandler provides no-op implementations for embedding.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(previous, current RunState, reason string) {}

// OnBatch does nothing.
func (BaseEventHandler) OnBatch(outcome domain.BatchOutcome, checkpoint domain.Checkpoint) {}

// runLifecycle is the state machine of a single run. It is owned by one
// goroutine and holds no locks.
type runLifecycle struct {
	state  RunState
	logger ports.Logger
	events EventHandler
}

func newRunLifecycle(logger ports.Logger, events EventHandler) *runLifecycle {
	return &runLifecycle{
		state:  StateInitializing,
		logger: logger,
		events: events,
	}
}

// State returns the current state.
func (l *runLifecycle) State() RunState {
	return l.state
}

// allowed lists the valid successors of each state.
var allowed = map[RunState][]RunState{
	StateInitializing:  {StatePlanning},
	StatePlanning:      {StateChunkInFlight, StateValidating, StateFinalizing},
	StateChunkInFlight: {StateCheckpointing, StateChunkRetry},
	StateChunkRetry:    {StateCheckpointing},
	StateCheckpointing: {StateChunkInFlight, StateValidating, StateFinalizing, StatePaused, StateInterrupted},
	StateValidating:    {StateFinalizing},
	StateFinalizing:    {StateDone},
}

// TransitionTo attempts to transition to a new state.
// Returns an error if the transition is not valid.
func (l *runLifecycle) TransitionTo(next RunState, reason string) error {
	prev := l.state

	ok := false
	for _, s := range allowed[prev] {
		if s == next {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
	}

	l.state = next

	if l.events != nil {
		l.events.OnStateChange(prev, next, reason)
	}

	l.logger.Debug("run state transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)

	return nil
}
