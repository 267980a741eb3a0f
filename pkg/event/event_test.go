package event_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bootbus/pkg/event"
)

type stubApp struct{ name string }

func (a *stubApp) Name() string                { return a.name }
func (a *stubApp) Listeners() []event.Listener { return nil }

type stubContainer struct{ active bool }

func (c *stubContainer) AddListener(event.Listener) {}
func (c *stubContainer) Publish(*event.Event) error { return nil }
func (c *stubContainer) IsActive() bool             { return c.active }

func TestNewStarting_CopiesArgs(t *testing.T) {
	args := []string{"--port", "8080"}
	bc := event.NewBootstrapContext()

	e := event.NewStarting(&stubApp{name: "demo"}, args, bc)
	args[0] = "mutated"

	assert.Equal(t, event.TypeStarting, e.Type())
	assert.Equal(t, []string{"--port", "8080"}, e.Args())
	assert.Same(t, bc, e.BootstrapContext())
	assert.NotEmpty(t, e.ID())
	assert.False(t, e.Timestamp().IsZero())

	got := e.Args()
	got[1] = "9090"
	assert.Equal(t, "8080", e.Args()[1], "Args must return a copy")
}

func TestNewStarting_NilArgsBecomeEmpty(t *testing.T) {
	e := event.NewStarting(&stubApp{}, nil, nil)
	require.NotNil(t, e.Args())
	assert.Empty(t, e.Args())
}

func TestLifecycleEvent_RequiresSource(t *testing.T) {
	assert.Panics(t, func() { event.NewStarting(nil, nil, nil) })
	assert.Panics(t, func() { event.NewFailed(nil, nil, nil, errors.New("x")) })
}

func TestPayloads(t *testing.T) {
	app := &stubApp{name: "demo"}
	c := &stubContainer{}
	cause := errors.New("boom")

	started := event.NewStarted(app, nil, c, 2*time.Second)
	assert.Equal(t, event.TypeStarted, started.Type())
	assert.Equal(t, 2*time.Second, started.Elapsed())
	assert.Same(t, c, started.Container())
	assert.Same(t, app, started.Source())

	failed := event.NewFailed(app, nil, nil, cause)
	assert.Nil(t, failed.Container())
	assert.Same(t, cause, failed.Cause())

	avail := event.NewAvailabilityChange(app, c, event.ReadinessAcceptingTraffic)
	assert.Equal(t, event.TypeAvailabilityChange, avail.Type())
	assert.Equal(t, event.ReadinessAcceptingTraffic, avail.Availability())
	assert.True(t, avail.Availability().IsReadiness())
	assert.False(t, avail.Availability().IsLiveness())

	changed := event.NewEnvironmentChanged(c, nil, []string{"a", "b"})
	assert.Nil(t, changed.Source())
	assert.Equal(t, []string{"a", "b"}, changed.ChangedKeys())
}

func TestEventIDsAreUnique(t *testing.T) {
	app := &stubApp{}
	a := event.NewStarting(app, nil, nil)
	b := event.NewStarting(app, nil, nil)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestSameListener(t *testing.T) {
	fn := func(*event.Event) error { return nil }
	a := event.ListenerFunc(event.AllTypes, fn)
	b := event.ListenerFunc(event.AllTypes, fn)

	assert.True(t, event.SameListener(a, a))
	assert.False(t, event.SameListener(a, b))
	assert.True(t, event.ContainsListener([]event.Listener{b, a}, a))
	assert.False(t, event.ContainsListener(nil, a))
}

type sliceListener []string

func (sliceListener) Supports(event.Type) bool   { return true }
func (sliceListener) OnEvent(*event.Event) error { return nil }

func TestSameListener_NonComparable(t *testing.T) {
	l := sliceListener{"x"}
	assert.NotPanics(t, func() {
		assert.False(t, event.SameListener(l, l))
	})
}

// wrappingListener is comparable as a type but holds a function in an
// interface field.
type wrappingListener struct {
	next any
}

func (wrappingListener) Supports(event.Type) bool   { return true }
func (wrappingListener) OnEvent(*event.Event) error { return nil }

func TestSameListener_InterfaceFieldHoldingFunc(t *testing.T) {
	a := wrappingListener{next: func() {}}
	b := wrappingListener{next: func() {}}
	assert.NotPanics(t, func() {
		assert.False(t, event.SameListener(a, b))
		assert.False(t, event.ContainsListener([]event.Listener{a}, b))
	})

	named := wrappingListener{next: "x"}
	assert.True(t, event.SameListener(named, wrappingListener{next: "x"}))
}

func TestBootstrapContext(t *testing.T) {
	bc := event.NewBootstrapContext()
	require.True(t, bc.Register("registry", 42))
	assert.False(t, bc.Register("registry", 43))

	v, ok := bc.Get("registry")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	var closedWith []event.Container
	bc.OnClose(func(c event.Container) { closedWith = append(closedWith, c) })

	c := &stubContainer{}
	bc.Close(c)
	bc.Close(c)

	assert.True(t, bc.Closed())
	assert.Len(t, closedWith, 1)
}
