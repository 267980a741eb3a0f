package publisher

import (
	"time"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
	"github.com/bft-labs/bootbus/pkg/multicast"
)

// Publisher turns lifecycle phase calls into events for one application run.
// It is not safe for concurrent use; phases are expected one at a time.
type Publisher struct {
	app      event.Application
	args     []string
	initial  *multicast.Multicaster
	delivery Delivery
	handoff  event.Container
	logger   log.Logger

	// refreshed counts the application listeners already added to initial.
	refreshed int

	// attached is the container the application listeners were attached to
	// at context-loaded, and [attachedFrom, attachedTo) their positions in
	// its listener list.
	attached     event.Container
	attachedFrom int
	attachedTo   int
}

// New creates a publisher for a run of app with args. Delivery starts on a
// fresh, empty multicaster.
func New(app event.Application, args []string, logger log.Logger) *Publisher {
	logger = log.OrNoop(logger)
	initial := multicast.New(logger)
	return &Publisher{
		app:      app,
		args:     append([]string(nil), args...),
		initial:  initial,
		delivery: multicasterDelivery{m: initial},
		logger:   logger,
	}
}

// Multicaster returns the bootstrap multicaster.
func (p *Publisher) Multicaster() *multicast.Multicaster { return p.initial }

// Delivery returns the name of the active delivery path.
func (p *Publisher) Delivery() string { return p.delivery.Name() }

// Starting broadcasts the starting event.
func (p *Publisher) Starting(bc *event.BootstrapContext) error {
	p.refresh()
	return p.delivery.Deliver(event.NewStarting(p.app, p.args, bc))
}

// EnvironmentPrepared broadcasts the environment-prepared event.
func (p *Publisher) EnvironmentPrepared(bc *event.BootstrapContext, env event.Environment) error {
	p.refresh()
	return p.delivery.Deliver(event.NewEnvironmentPrepared(p.app, p.args, bc, env))
}

// ContextPrepared broadcasts the context-initialized event.
func (p *Publisher) ContextPrepared(c event.Container) error {
	p.refresh()
	return p.delivery.Deliver(event.NewContextInitialized(p.app, p.args, c))
}

// ContextLoaded attaches every application listener to c, broadcasts the
// context-loaded event on the bootstrap multicaster and hands delivery off
// to c.
func (p *Publisher) ContextLoaded(c event.Container) error {
	p.refresh()
	src, enumerable := c.(event.ListenerSource)
	if enumerable {
		p.attachedFrom = len(src.Listeners())
	}
	for _, l := range p.app.Listeners() {
		if aware, ok := l.(event.ContainerAware); ok {
			aware.SetContainer(c)
		}
		c.AddListener(l)
	}
	if enumerable {
		p.attached = c
		p.attachedTo = len(src.Listeners())
	}
	if err := p.delivery.Deliver(event.NewContextLoaded(p.app, p.args, c)); err != nil {
		return err
	}
	p.Handoff(c)
	return nil
}

// Started publishes the started event, then the liveness change, through
// the container.
func (p *Publisher) Started(c event.Container, elapsed time.Duration) error {
	d := p.containerPath(c)
	if err := d.Deliver(event.NewStarted(p.app, p.args, c, elapsed)); err != nil {
		return err
	}
	return d.Deliver(event.NewAvailabilityChange(p.app, c, event.LivenessCorrect))
}

// Ready publishes the ready event, then the readiness change, through the
// container.
func (p *Publisher) Ready(c event.Container, elapsed time.Duration) error {
	d := p.containerPath(c)
	if err := d.Deliver(event.NewReady(p.app, p.args, c, elapsed)); err != nil {
		return err
	}
	return d.Deliver(event.NewAvailabilityChange(p.app, c, event.ReadinessAcceptingTraffic))
}

// Failed broadcasts the failed event. c may be nil.
//
// An active container publishes the event itself, reaching listeners that
// were attached to it directly. Otherwise the bootstrap multicaster is used:
// it is refreshed from the application, topped up with the listeners of an
// inactive container that can enumerate them, and switched permanently to
// logging listener errors so every listener is notified.
func (p *Publisher) Failed(c event.Container, cause error) error {
	e := event.NewFailed(p.app, p.args, c, cause)
	if c != nil && c.IsActive() {
		return containerDelivery{c: c}.Deliver(e)
	}

	p.refresh()
	if src, ok := c.(event.ListenerSource); ok {
		for i, l := range src.Listeners() {
			if p.attachedByPublisher(c, i) {
				continue
			}
			p.initial.AddListener(l)
		}
	}
	p.initial.SetErrorHandler(multicast.LoggingErrorHandler(p.logger))
	return p.initial.Multicast(e)
}

// Handoff makes c the delivery path for subsequent container-bound phases.
func (p *Publisher) Handoff(c event.Container) {
	p.handoff = c
	p.delivery = containerDelivery{c: c}
	p.logger.Debug("lifecycle delivery handed off to container",
		log.String("application", p.app.Name()),
	)
}

// containerPath returns the container delivery for c, handing off first when
// c is not the container delivery was handed to.
func (p *Publisher) containerPath(c event.Container) Delivery {
	if p.handoff == nil || p.handoff != c {
		p.Handoff(c)
	}
	return p.delivery
}

// refresh adds the application listeners registered since the last phase.
// The application list only grows, so the listeners past the ones already
// added are the new ones. Listeners that cannot be compared are added once.
func (p *Publisher) refresh() {
	listeners := p.app.Listeners()
	if p.refreshed > len(listeners) {
		p.refreshed = 0
	}
	for _, l := range listeners[p.refreshed:] {
		p.initial.AddListener(l)
	}
	p.refreshed = len(listeners)
}

// attachedByPublisher reports whether the i-th listener of c is an
// application listener attached at context-loaded. Those are already on the
// bootstrap multicaster.
func (p *Publisher) attachedByPublisher(c event.Container, i int) bool {
	return p.attached != nil && p.attached == c && i >= p.attachedFrom && i < p.attachedTo
}
