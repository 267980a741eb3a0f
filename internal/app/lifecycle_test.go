package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/bootbus/internal/domain"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// mockLogger implements log.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...log.Field) {}
func (mockLogger) Info(msg string, fields ...log.Field)  {}
func (mockLogger) Warn(msg string, fields ...log.Field)  {}
func (mockLogger) Error(msg string, fields ...log.Field) {}

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.State() != StateIdle {
		t.Errorf("initial state = %v, want StateIdle", l.State())
	}
}

func TestNewLifecycle_NilLogger(t *testing.T) {
	l := NewLifecycle(nil, nil)
	if err := l.Enter(event.TypeStarting); err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateStarting, "starting"},
		{StateEnvironmentPrepared, "environment-prepared"},
		{StateContextInitialized, "context-initialized"},
		{StateContextLoaded, "context-loaded"},
		{StateStarted, "started"},
		{StateReady, "ready"},
		{StateFailed, "Failed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestStateOf(t *testing.T) {
	for _, phase := range append(event.Phases(), event.TypeFailed) {
		s, ok := StateOf(phase)
		if !ok {
			t.Fatalf("StateOf(%s) not ok", phase)
		}
		back, ok := s.Phase()
		if !ok || back != phase {
			t.Errorf("StateOf(%s).Phase() = %s, %v", phase, back, ok)
		}
	}

	if _, ok := StateOf(event.TypeContainerRefreshed); ok {
		t.Error("StateOf(container-refreshed) should not be ok")
	}
	if _, ok := StateIdle.Phase(); ok {
		t.Error("StateIdle.Phase() should not be ok")
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to starting", StateIdle, StateStarting},
		{"starting to environment prepared", StateStarting, StateEnvironmentPrepared},
		{"environment prepared to context initialized", StateEnvironmentPrepared, StateContextInitialized},
		{"context initialized to context loaded", StateContextInitialized, StateContextLoaded},
		{"context loaded to started", StateContextLoaded, StateStarted},
		{"started to ready", StateStarted, StateReady},
		{"idle to failed", StateIdle, StateFailed},
		{"context loaded to failed", StateContextLoaded, StateFailed},
		{"ready to failed", StateReady, StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Errorf("TransitionTo(%v) from %v error = %v", tt.to, tt.from, err)
			}
			if l.State() != tt.to {
				t.Errorf("State() = %v, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to started", StateIdle, StateStarted},
		{"starting to starting", StateStarting, StateStarting},
		{"skip context initialized", StateEnvironmentPrepared, StateContextLoaded},
		{"backwards", StateStarted, StateContextLoaded},
		{"ready to idle", StateReady, StateIdle},
		{"failed to failed", StateFailed, StateFailed},
		{"failed to starting", StateFailed, StateStarting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("TransitionTo(%v) from %v error = %v, want ErrInvalidTransition", tt.to, tt.from, err)
			}
			if l.State() != tt.from {
				t.Errorf("State() = %v, want unchanged %v", l.State(), tt.from)
			}
		})
	}
}

func TestLifecycle_Enter_FullRun(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	for _, phase := range event.Phases() {
		if err := l.Enter(phase); err != nil {
			t.Fatalf("Enter(%s) error = %v", phase, err)
		}
	}

	if !l.Completed() {
		t.Errorf("Completed() = false after all phases, state %v", l.State())
	}

	events := emitter.Events()
	if len(events) != len(event.Phases()) {
		t.Fatalf("emitted %d events, want %d", len(events), len(event.Phases()))
	}
	if events[0].previous != StateIdle || events[0].current != StateStarting {
		t.Errorf("first event = %+v", events[0])
	}
	if events[0].reason != "starting" {
		t.Errorf("first reason = %q, want starting", events[0].reason)
	}
}

func TestLifecycle_Enter_NonPhase(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	err := l.Enter(event.TypeAvailabilityChange)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Enter(availability-change) error = %v, want ErrInvalidTransition", err)
	}
}

func TestLifecycle_CanFail(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	if !l.CanFail() {
		t.Error("CanFail() = false in idle")
	}

	if err := l.Enter(event.TypeFailed); err != nil {
		t.Fatalf("Enter(failed) error = %v", err)
	}
	if l.CanFail() {
		t.Error("CanFail() = true after failing")
	}
	if l.Completed() {
		t.Error("Completed() = true after failing")
	}
}

func TestLifecycle_InvalidTransitionNotEmitted(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.TransitionTo(StateReady, "skip")

	if n := len(emitter.Events()); n != 0 {
		t.Errorf("emitted %d events for invalid transition, want 0", n)
	}
}

func TestLifecycle_ConcurrentReads(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
				_ = l.CanFail()
			}
		}()
	}

	for _, phase := range event.Phases() {
		if err := l.Enter(phase); err != nil {
			t.Errorf("Enter(%s) error = %v", phase, err)
		}
	}
	wg.Wait()
}
