package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/bootbus/internal/domain"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// State represents how far a run has progressed through its phases.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateEnvironmentPrepared
	StateContextInitialized
	StateContextLoaded
	StateStarted
	StateReady
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFailed:
		return "Failed"
	}
	if t, ok := s.Phase(); ok {
		return t.String()
	}
	return "Unknown"
}

// Phase returns the event type announced on entering s.
func (s State) Phase() (event.Type, bool) {
	if s < StateStarting || s > StateFailed {
		return 0, false
	}
	return event.TypeStarting + event.Type(s-StateStarting), true
}

// StateOf returns the state entered when phase t is announced.
func StateOf(t event.Type) (State, bool) {
	if !t.IsPhase() {
		return StateIdle, false
	}
	return StateStarting + State(t-event.TypeStarting), true
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool { return s == StateFailed }

// EventEmitter is called when the tracked state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle tracks a single run. Phases advance strictly in order and a
// run may fail from any state except failed itself.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewLifecycle creates a tracker in the idle state.
func NewLifecycle(logger log.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       log.OrNoop(logger),
		eventEmitter: emitter,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to move to newState.
// Returns an error wrapping domain.ErrInvalidTransition if the move would
// skip or repeat a phase, or leave the failed state.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	if !validTransition(oldState, newState) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, oldState, newState)
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Debug("phase transition",
		log.Stringer("from", oldState),
		log.Stringer("to", newState),
		log.String("reason", reason),
	)

	return nil
}

// Enter moves to the state announced by phase t.
func (l *Lifecycle) Enter(t event.Type) error {
	s, ok := StateOf(t)
	if !ok {
		return fmt.Errorf("%w: %s is not a phase", domain.ErrInvalidTransition, t)
	}
	return l.TransitionTo(s, t.String())
}

// CanFail reports whether the run may still move to the failed state.
func (l *Lifecycle) CanFail() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.state.Terminal()
}

// Completed reports whether the run reached ready.
func (l *Lifecycle) Completed() bool {
	return l.State() == StateReady
}

func validTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	if from == StateReady {
		return false
	}
	return to == from+1
}
