// Package availability tracks the latest liveness and readiness states
// announced by availability-change events.
//
// Until a state has been announced, liveness reads as BROKEN and readiness
// as REFUSING_TRAFFIC. Readiness drops back to REFUSING_TRAFFIC when the
// container closes.
package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/heptiolabs/healthcheck"

	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// ErrNotReady is returned by Publish before the container is available.
var ErrNotReady = errors.New("availability: no container to publish through")

// Kind separates liveness from readiness states.
type Kind string

const (
	KindLiveness  Kind = "liveness"
	KindReadiness Kind = "readiness"
)

// KindOf returns the kind of s.
func KindOf(s event.AvailabilityState) (Kind, bool) {
	switch {
	case s.IsLiveness():
		return KindLiveness, true
	case s.IsReadiness():
		return KindReadiness, true
	default:
		return "", false
	}
}

// Plugin is the availability tracker.
type Plugin struct {
	bootbus.BasePlugin

	mu         sync.RWMutex
	app        event.Application
	container  event.Container
	states     map[Kind]event.AvailabilityState
	lastChange map[Kind]*event.Event
	logger     log.Logger
}

// New creates a tracker with no state announced yet.
func New() *Plugin {
	return &Plugin{
		states:     make(map[Kind]event.AvailabilityState),
		lastChange: make(map[Kind]*event.Event),
		logger:     log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string { return "availability" }

// Initialize registers the tracking listener.
func (p *Plugin) Initialize(ctx context.Context, cfg bootbus.PluginConfig) error {
	p.mu.Lock()
	p.app = cfg.Application
	p.logger = log.OrNoop(cfg.Logger)
	p.mu.Unlock()

	types := event.Types(event.TypeContextLoaded, event.TypeAvailabilityChange, event.TypeContainerClosed)
	cfg.Application.AddListeners(event.ListenerFunc(types, p.onEvent))
	return nil
}

// Liveness returns the latest liveness state.
func (p *Plugin) Liveness() event.AvailabilityState {
	return p.State(KindLiveness)
}

// Readiness returns the latest readiness state.
func (p *Plugin) Readiness() event.AvailabilityState {
	return p.State(KindReadiness)
}

// State returns the latest state of kind k, or its default.
func (p *Plugin) State(k Kind) event.AvailabilityState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.states[k]; ok {
		return s
	}
	if k == KindLiveness {
		return event.LivenessBroken
	}
	return event.ReadinessRefusingTraffic
}

// LastChange returns the event that announced the current state of kind k,
// or nil.
func (p *Plugin) LastChange(k Kind) *event.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastChange[k]
}

// Publish announces s through the container, so every listener sees the
// change.
func (p *Plugin) Publish(s event.AvailabilityState) error {
	p.mu.RLock()
	app, c := p.app, p.container
	p.mu.RUnlock()

	if c == nil || app == nil {
		return ErrNotReady
	}
	return c.Publish(event.NewAvailabilityChange(app, c, s))
}

// Check returns a health check that fails while kind k is not in its
// healthy state.
func (p *Plugin) Check(k Kind) healthcheck.Check {
	healthy := event.LivenessCorrect
	if k == KindReadiness {
		healthy = event.ReadinessAcceptingTraffic
	}
	return func() error {
		if s := p.State(k); s != healthy {
			return fmt.Errorf("%s is %s", k, s)
		}
		return nil
	}
}

// HealthHandler serves /live and /ready from the tracked states.
func (p *Plugin) HealthHandler() healthcheck.Handler {
	h := healthcheck.NewHandler()
	h.AddLivenessCheck("liveness", p.Check(KindLiveness))
	h.AddReadinessCheck("readiness", p.Check(KindReadiness))
	return h
}

func (p *Plugin) onEvent(e *event.Event) error {
	switch e.Type() {
	case event.TypeContextLoaded:
		p.mu.Lock()
		p.container = e.Container()
		p.mu.Unlock()

	case event.TypeAvailabilityChange:
		k, ok := KindOf(e.Availability())
		if !ok {
			return nil
		}
		p.mu.Lock()
		previous := p.states[k]
		p.states[k] = e.Availability()
		p.lastChange[k] = e
		p.mu.Unlock()
		if previous != e.Availability() {
			p.logger.Info("availability changed",
				log.String("kind", string(k)),
				log.String("from", string(previous)),
				log.String("to", string(e.Availability())),
			)
		}

	case event.TypeContainerClosed:
		p.mu.Lock()
		p.states[KindReadiness] = event.ReadinessRefusingTraffic
		p.container = nil
		p.mu.Unlock()
	}
	return nil
}

// Ensure Plugin implements bootbus.Plugin.
var _ bootbus.Plugin = (*Plugin)(nil)
