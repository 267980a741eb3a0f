package bootbus

import "github.com/bft-labs/bootbus/internal/app"

// State is how far a run has progressed.
type State string

const (
	StateIdle                State = "Idle"
	StateStarting            State = "starting"
	StateEnvironmentPrepared State = "environment-prepared"
	StateContextInitialized  State = "context-initialized"
	StateContextLoaded       State = "context-loaded"
	StateStarted             State = "started"
	StateReady               State = "ready"
	StateFailed              State = "Failed"
)

// StateChangeEvent describes one phase transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives phase transitions.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(event StateChangeEvent)

func (f EventHandlerFunc) OnStateChange(event StateChangeEvent) { f(event) }

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStarting:
		return StateStarting
	case app.StateEnvironmentPrepared:
		return StateEnvironmentPrepared
	case app.StateContextInitialized:
		return StateContextInitialized
	case app.StateContextLoaded:
		return StateContextLoaded
	case app.StateStarted:
		return StateStarted
	case app.StateReady:
		return StateReady
	case app.StateFailed:
		return StateFailed
	default:
		return StateIdle
	}
}
