package multicast_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/multicast"
)

type app struct{}

func (app) Name() string                { return "test" }
func (app) Listeners() []event.Listener { return nil }

// recorder appends "<name>:<type>" for every event it handles.
type recorder struct {
	mu    sync.Mutex
	calls *[]string
}

func newListener(name string, calls *[]string, types event.TypeSet, failOn event.Type, err error) event.Listener {
	rec := &recorder{calls: calls}
	return event.ListenerFunc(types, func(e *event.Event) error {
		rec.mu.Lock()
		*rec.calls = append(*rec.calls, name+":"+e.Type().String())
		rec.mu.Unlock()
		if err != nil && e.Type() == failOn {
			return err
		}
		return nil
	})
}

func starting() *event.Event { return event.NewStarting(app{}, nil, nil) }

func TestMulticast_DeliversInRegistrationOrder(t *testing.T) {
	var calls []string
	m := multicast.New(nil)
	for _, name := range []string{"a", "b", "c"} {
		m.AddListener(newListener(name, &calls, event.AllTypes, 0, nil))
	}

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"a:starting", "b:starting", "c:starting"}, calls)
}

func TestAddListener_Idempotent(t *testing.T) {
	var calls []string
	m := multicast.New(nil)
	a := newListener("a", &calls, event.AllTypes, 0, nil)
	b := newListener("b", &calls, event.AllTypes, 0, nil)

	assert.True(t, m.AddListener(a))
	assert.True(t, m.AddListener(b))
	assert.False(t, m.AddListener(a))
	assert.False(t, m.AddListener(nil))

	for _, l := range []event.Listener{a, b} {
		m.AddListener(l)
	}

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"a:starting", "b:starting"}, calls)
	assert.Len(t, m.Listeners(), 2)
}

func TestMulticast_SkipsUnsupportedTypes(t *testing.T) {
	var calls []string
	m := multicast.New(nil)
	m.AddListener(newListener("ready-only", &calls, event.Types(event.TypeReady), 0, nil))
	m.AddListener(newListener("all", &calls, event.AllTypes, 0, nil))

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"all:starting"}, calls)
}

func TestMulticast_DefaultStopsAtFirstError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	m := multicast.New(nil)
	first := newListener("a", &calls, event.AllTypes, 0, nil)
	failing := newListener("b", &calls, event.AllTypes, event.TypeStarting, boom)
	m.AddListener(first)
	m.AddListener(failing)
	m.AddListener(newListener("c", &calls, event.AllTypes, 0, nil))

	err := m.Multicast(starting())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var de *multicast.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Same(t, failing, de.Listener)
	assert.Equal(t, event.TypeStarting, de.Event.Type())
	assert.Equal(t, []string{"a:starting", "b:starting"}, calls)
}

func TestMulticast_LoggingHandlerContinues(t *testing.T) {
	var calls []string
	var handled []*multicast.DispatchError
	m := multicast.New(nil)
	m.AddListener(newListener("a", &calls, event.AllTypes, event.TypeStarting, errors.New("a failed")))
	m.AddListener(newListener("b", &calls, event.AllTypes, event.TypeStarting, errors.New("b failed")))
	m.AddListener(newListener("c", &calls, event.AllTypes, 0, nil))
	m.SetErrorHandler(multicast.ErrorHandlerFunc(func(err *multicast.DispatchError) {
		handled = append(handled, err)
	}))

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"a:starting", "b:starting", "c:starting"}, calls)
	assert.Len(t, handled, 2)
}

func TestMulticast_LoggingErrorHandlerDoesNotPropagate(t *testing.T) {
	var calls []string
	m := multicast.New(nil)
	m.AddListener(newListener("a", &calls, event.AllTypes, event.TypeStarting, errors.New("a failed")))
	m.AddListener(newListener("b", &calls, event.AllTypes, 0, nil))
	m.SetErrorHandler(multicast.LoggingErrorHandler(nil))

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"a:starting", "b:starting"}, calls)
}

func TestSetErrorHandler_NilRestoresPropagation(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	m := multicast.New(nil)
	m.AddListener(newListener("a", &calls, event.AllTypes, event.TypeStarting, boom))

	m.SetErrorHandler(multicast.LoggingErrorHandler(nil))
	require.NotNil(t, m.ErrorHandler())
	require.NoError(t, m.Multicast(starting()))

	m.SetErrorHandler(nil)
	assert.ErrorIs(t, m.Multicast(starting()), boom)
}

func TestMulticast_RecoversPanics(t *testing.T) {
	var calls []string
	m := multicast.New(nil)
	m.AddListener(event.ListenerFunc(event.AllTypes, func(*event.Event) error {
		panic("listener exploded")
	}))
	m.AddListener(newListener("after", &calls, event.AllTypes, 0, nil))

	err := m.Multicast(starting())
	var de *multicast.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "listener exploded", de.Panic)
	assert.Empty(t, calls)

	m.SetErrorHandler(multicast.LoggingErrorHandler(nil))
	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"after:starting"}, calls)
}

func TestMulticast_ListenerAddedMidDispatchIsNotDelivered(t *testing.T) {
	var calls []string
	m := multicast.New(nil)
	late := newListener("late", &calls, event.AllTypes, 0, nil)
	m.AddListener(event.ListenerFunc(event.AllTypes, func(e *event.Event) error {
		calls = append(calls, "adder:"+e.Type().String())
		m.AddListener(late)
		return nil
	}))

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"adder:starting"}, calls)

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"adder:starting", "adder:starting", "late:starting"}, calls)
}

func TestRemoveListener(t *testing.T) {
	var calls []string
	m := multicast.New(nil)
	a := newListener("a", &calls, event.AllTypes, 0, nil)
	b := newListener("b", &calls, event.AllTypes, 0, nil)
	m.AddListener(a)
	m.AddListener(b)

	assert.True(t, m.RemoveListener(a))
	assert.False(t, m.RemoveListener(a))

	require.NoError(t, m.Multicast(starting()))
	assert.Equal(t, []string{"b:starting"}, calls)
}
