// Package metrics exports lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

const (
	namespace = "bootbus"
	subsystem = "lifecycle"
)

// Plugin counts lifecycle events and records startup times.
type Plugin struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	registered bool

	events       *prometheus.CounterVec
	startupTime  *prometheus.GaugeVec
	failures     *prometheus.CounterVec
	availability *prometheus.GaugeVec
}

// New creates the plugin's collectors. They are registered with reg during
// Initialize; a nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Plugin {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Plugin{
		registerer: reg,
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Total number of lifecycle events observed, by type",
			},
			[]string{"application", "type"},
		),
		startupTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "startup_seconds",
				Help:      "Time taken from run start to the started and ready phases",
			},
			[]string{"application", "phase"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "failures_total",
				Help:      "Total number of failed runs",
			},
			[]string{"application"},
		),
		availability: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "availability",
				Help:      "Current availability state (1 for the active state of each kind)",
			},
			[]string{"application", "kind", "state"},
		),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string { return "metrics" }

// Initialize registers the collectors and the counting listener.
func (p *Plugin) Initialize(ctx context.Context, cfg bootbus.PluginConfig) error {
	if err := p.register(); err != nil {
		return err
	}
	name := cfg.Application.Name()
	logger := log.OrNoop(cfg.Logger)

	cfg.Application.AddListeners(event.ListenerFunc(event.AllTypes, func(e *event.Event) error {
		p.observe(name, e)
		return nil
	}))
	logger.Debug("lifecycle metrics enabled", log.String("application", name))
	return nil
}

// Shutdown unregisters the collectors.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.registered {
		return nil
	}
	for _, c := range p.collectors() {
		p.registerer.Unregister(c)
	}
	p.registered = false
	return nil
}

func (p *Plugin) register() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registered {
		return nil
	}
	for _, c := range p.collectors() {
		if err := p.registerer.Register(c); err != nil {
			return fmt.Errorf("register lifecycle metrics: %w", err)
		}
	}
	p.registered = true
	return nil
}

func (p *Plugin) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.events, p.startupTime, p.failures, p.availability}
}

func (p *Plugin) observe(app string, e *event.Event) {
	p.events.WithLabelValues(app, e.Type().String()).Inc()

	switch e.Type() {
	case event.TypeStarted, event.TypeReady:
		p.startupTime.WithLabelValues(app, e.Type().String()).Set(e.Elapsed().Seconds())
	case event.TypeFailed:
		p.failures.WithLabelValues(app).Inc()
	case event.TypeAvailabilityChange:
		p.setAvailability(app, e.Availability())
	}
}

func (p *Plugin) setAvailability(app string, state event.AvailabilityState) {
	var kind string
	var states []event.AvailabilityState
	switch {
	case state.IsLiveness():
		kind = "liveness"
		states = []event.AvailabilityState{event.LivenessCorrect, event.LivenessBroken}
	case state.IsReadiness():
		kind = "readiness"
		states = []event.AvailabilityState{event.ReadinessAcceptingTraffic, event.ReadinessRefusingTraffic}
	default:
		return
	}
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		p.availability.WithLabelValues(app, kind, string(s)).Set(v)
	}
}

// Ensure Plugin implements bootbus.Plugin.
var _ bootbus.Plugin = (*Plugin)(nil)
