package publisher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bootbus/pkg/container"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/publisher"
)

// testApp is an application whose listener list can grow between phases.
type testApp struct {
	listeners []event.Listener
}

func (a *testApp) Name() string                { return "test" }
func (a *testApp) Listeners() []event.Listener { return append([]event.Listener(nil), a.listeners...) }

// recorder records every event type it receives and can fail on one type.
type recorder struct {
	name      string
	got       []event.Type
	failOn    event.Type
	err       error
	container event.Container
}

func (r *recorder) Supports(event.Type) bool { return true }

func (r *recorder) OnEvent(e *event.Event) error {
	r.got = append(r.got, e.Type())
	if r.err != nil && e.Type() == r.failOn {
		return r.err
	}
	return nil
}

func (r *recorder) SetContainer(c event.Container) { r.container = c }

// phases filters availability notifications out of a recording.
func phases(types []event.Type) []event.Type {
	var out []event.Type
	for _, t := range types {
		if t.IsPhase() {
			out = append(out, t)
		}
	}
	return out
}

// bareContainer cannot enumerate its listeners.
type bareContainer struct {
	active    bool
	published []*event.Event
	attached  int
}

func (c *bareContainer) AddListener(event.Listener) { c.attached++ }
func (c *bareContainer) IsActive() bool             { return c.active }

func (c *bareContainer) Publish(e *event.Event) error {
	c.published = append(c.published, e)
	return nil
}

func runToReady(t *testing.T, p *publisher.Publisher, c *container.Generic) {
	t.Helper()
	bc := event.NewBootstrapContext()
	require.NoError(t, p.Starting(bc))
	require.NoError(t, p.EnvironmentPrepared(bc, nil))
	require.NoError(t, p.ContextPrepared(c))
	require.NoError(t, p.ContextLoaded(c))
	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, p.Started(c, time.Second))
	require.NoError(t, p.Ready(c, 2*time.Second))
}

func TestPublisher_FullRunInOrder(t *testing.T) {
	recorders := []*recorder{{name: "a"}, {name: "b"}, {name: "c"}}
	app := &testApp{}
	for _, pr := range recorders {
		app.listeners = append(app.listeners, pr)
	}
	c := container.NewGeneric("test")
	p := publisher.New(app, []string{"--x"}, nil)

	runToReady(t, p, c)

	for _, pr := range recorders {
		assert.Equal(t, event.Phases(), phases(pr.got), pr.name)
		assert.Same(t, c, pr.container, "container-aware listeners are associated at handoff")
	}
	assert.Equal(t, publisher.DeliveryContainer, p.Delivery())
}

func TestPublisher_StartedAndReadyGoThroughContainer(t *testing.T) {
	pr := &recorder{}
	app := &testApp{listeners: []event.Listener{pr}}
	c := &bareContainer{active: true}
	p := publisher.New(app, nil, nil)

	require.NoError(t, p.ContextLoaded(c))
	assert.Equal(t, 1, c.attached)
	before := len(pr.got)

	require.NoError(t, p.Started(c, time.Second))
	require.NoError(t, p.Ready(c, time.Second))

	assert.Len(t, pr.got, before, "bootstrap multicaster must not deliver after handoff")
	require.Len(t, c.published, 4)
	assert.Equal(t, event.TypeStarted, c.published[0].Type())
	assert.Equal(t, event.LivenessCorrect, c.published[1].Availability())
	assert.Equal(t, event.TypeReady, c.published[2].Type())
	assert.Equal(t, event.ReadinessAcceptingTraffic, c.published[3].Availability())
}

func TestPublisher_StartedWithoutContextLoadedHandsOff(t *testing.T) {
	p := publisher.New(&testApp{}, nil, nil)
	assert.Equal(t, publisher.DeliveryMulticaster, p.Delivery())

	c := &bareContainer{active: true}
	require.NoError(t, p.Started(c, 0))
	assert.Equal(t, publisher.DeliveryContainer, p.Delivery())
	assert.Len(t, c.published, 2)
}

func TestPublisher_RefreshPicksUpNewListeners(t *testing.T) {
	first := &recorder{name: "first"}
	app := &testApp{listeners: []event.Listener{first}}
	p := publisher.New(app, nil, nil)
	bc := event.NewBootstrapContext()

	require.NoError(t, p.Starting(bc))

	late := &recorder{name: "late"}
	app.listeners = append(app.listeners, late)
	require.NoError(t, p.EnvironmentPrepared(bc, nil))
	require.NoError(t, p.ContextPrepared(container.NewGeneric("test")))

	assert.Equal(t, []event.Type{event.TypeStarting, event.TypeEnvironmentPrepared, event.TypeContextInitialized}, first.got)
	assert.Equal(t, []event.Type{event.TypeEnvironmentPrepared, event.TypeContextInitialized}, late.got)
	assert.Len(t, p.Multicaster().Listeners(), 2)
}

func TestPublisher_RefreshIsIdempotent(t *testing.T) {
	a, b := &recorder{name: "a"}, &recorder{name: "b"}
	app := &testApp{listeners: []event.Listener{a, b, a}}
	p := publisher.New(app, nil, nil)
	bc := event.NewBootstrapContext()

	require.NoError(t, p.Starting(bc))
	require.NoError(t, p.Starting(bc))

	assert.Equal(t, []event.Listener{a, b}, p.Multicaster().Listeners())
	assert.Equal(t, []event.Type{event.TypeStarting, event.TypeStarting}, a.got)
	assert.Equal(t, []event.Type{event.TypeStarting, event.TypeStarting}, b.got)
}

func TestPublisher_ErrorStopsDispatch(t *testing.T) {
	boom := errors.New("environment rejected")
	before := &recorder{name: "before"}
	failing := &recorder{name: "failing", failOn: event.TypeEnvironmentPrepared, err: boom}
	after := &recorder{name: "after"}
	app := &testApp{listeners: []event.Listener{before, failing, after}}
	p := publisher.New(app, nil, nil)
	bc := event.NewBootstrapContext()

	require.NoError(t, p.Starting(bc))
	err := p.EnvironmentPrepared(bc, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []event.Type{event.TypeStarting, event.TypeEnvironmentPrepared}, before.got)
	assert.Equal(t, []event.Type{event.TypeStarting, event.TypeEnvironmentPrepared}, failing.got)
	assert.Equal(t, []event.Type{event.TypeStarting}, after.got)
}

func TestPublisher_FailedWithoutContainer(t *testing.T) {
	recorders := []*recorder{
		{name: "1", failOn: event.TypeFailed, err: errors.New("listener 1 broke")},
		{name: "2"},
		{name: "3"},
	}
	app := &testApp{}
	for _, pr := range recorders {
		app.listeners = append(app.listeners, pr)
	}
	p := publisher.New(app, nil, nil)
	cause := errors.New("startup failed")

	require.NoError(t, p.Failed(nil, cause))

	for _, pr := range recorders {
		assert.Equal(t, []event.Type{event.TypeFailed}, pr.got, pr.name)
	}
	assert.NotNil(t, p.Multicaster().ErrorHandler(), "logging handler stays installed")
}

func TestPublisher_FailedWithActiveContainer(t *testing.T) {
	bootstrapOnly := &recorder{name: "bootstrap"}
	app := &testApp{listeners: []event.Listener{bootstrapOnly}}
	p := publisher.New(app, nil, nil)
	require.NoError(t, p.Starting(event.NewBootstrapContext()))
	before := p.Multicaster().Listeners()

	c := container.NewGeneric("test")
	direct := []*recorder{{name: "d1"}, {name: "d2"}}
	for _, pr := range direct {
		c.AddListener(pr)
	}
	require.NoError(t, c.Refresh(context.Background()))

	cause := errors.New("runner failed")
	require.NoError(t, p.Failed(c, cause))

	for _, pr := range direct {
		assert.Equal(t, event.TypeFailed, pr.got[len(pr.got)-1], pr.name)
	}
	assert.Equal(t, []event.Type{event.TypeStarting}, bootstrapOnly.got)
	assert.Equal(t, before, p.Multicaster().Listeners())
	assert.Nil(t, p.Multicaster().ErrorHandler())
}

func TestPublisher_FailedHarvestsInactiveContainer(t *testing.T) {
	registered := &recorder{name: "registered"}
	app := &testApp{listeners: []event.Listener{registered}}
	p := publisher.New(app, nil, nil)

	c := container.NewGeneric("test")
	attached := &recorder{name: "attached", failOn: event.TypeFailed, err: errors.New("nope")}
	c.AddListener(attached)
	c.AddListener(registered)
	require.False(t, c.IsActive())

	require.NoError(t, p.Failed(c, errors.New("refresh failed")))

	assert.Equal(t, []event.Type{event.TypeFailed}, registered.got)
	assert.Equal(t, []event.Type{event.TypeFailed}, attached.got)
	assert.Equal(t, []event.Listener{registered, attached}, p.Multicaster().Listeners())
}

func TestPublisher_FailedToleratesContainerWithoutListenerSource(t *testing.T) {
	registered := &recorder{}
	p := publisher.New(&testApp{listeners: []event.Listener{registered}}, nil, nil)
	c := &bareContainer{}

	require.NoError(t, p.Failed(c, errors.New("x")))
	assert.Empty(t, c.published)
	assert.Equal(t, []event.Type{event.TypeFailed}, registered.got)
}

func TestPublisher_FailedEventCarriesCause(t *testing.T) {
	var got *event.Event
	l := event.ListenerFunc(event.Types(event.TypeFailed), func(e *event.Event) error {
		got = e
		return nil
	})
	p := publisher.New(&testApp{listeners: []event.Listener{l}}, []string{"a"}, nil)
	cause := errors.New("cause")

	require.NoError(t, p.Failed(nil, cause))
	require.NotNil(t, got)
	assert.Same(t, cause, got.Cause())
	assert.Nil(t, got.Container())
	assert.Equal(t, []string{"a"}, got.Args())
}

// countingFunc is a listener of function type, which cannot be compared.
type countingFunc func(e *event.Event) error

func (f countingFunc) Supports(event.Type) bool     { return true }
func (f countingFunc) OnEvent(e *event.Event) error { return f(e) }

func TestPublisher_FuncListenerAddedOnce(t *testing.T) {
	counts := map[event.Type]int{}
	l := countingFunc(func(e *event.Event) error {
		counts[e.Type()]++
		return nil
	})
	app := &testApp{listeners: []event.Listener{l}}
	p := publisher.New(app, nil, nil)
	c := container.NewGeneric("test")
	bc := event.NewBootstrapContext()

	require.NoError(t, p.Starting(bc))
	require.NoError(t, p.EnvironmentPrepared(bc, nil))
	require.NoError(t, p.ContextPrepared(c))
	assert.Equal(t, publisher.DeliveryMulticaster, p.Delivery())
	require.NoError(t, p.ContextLoaded(c))
	assert.Equal(t, publisher.DeliveryContainer, p.Delivery())

	assert.Equal(t, map[event.Type]int{
		event.TypeStarting:            1,
		event.TypeEnvironmentPrepared: 1,
		event.TypeContextInitialized:  1,
		event.TypeContextLoaded:       1,
	}, counts)
	assert.Len(t, p.Multicaster().Listeners(), 1)
}

func TestPublisher_FailedAfterContextLoadedSkipsAttachedListeners(t *testing.T) {
	failed := 0
	l := countingFunc(func(e *event.Event) error {
		if e.Type() == event.TypeFailed {
			failed++
		}
		return nil
	})
	app := &testApp{listeners: []event.Listener{l}}
	p := publisher.New(app, nil, nil)

	c := container.NewGeneric("test")
	direct := &recorder{name: "direct"}
	c.AddListener(direct)
	require.NoError(t, p.ContextLoaded(c))
	require.Len(t, c.Listeners(), 2)
	require.False(t, c.IsActive())

	require.NoError(t, p.Failed(c, errors.New("refresh failed")))

	assert.Equal(t, 1, failed)
	assert.Equal(t, []event.Type{event.TypeFailed}, direct.got)
	assert.Len(t, p.Multicaster().Listeners(), 2)
}
