// Package resourcegating gates readiness on system load. Once the
// application is ready it samples the load periodically and publishes
// REFUSING_TRAFFIC through the container while the load stays above the
// threshold, and ACCEPTING_TRAFFIC again when it drops back.
package resourcegating

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/sourcegraph/conc"

	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// Plugin implements resource gating functionality.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	threshold float64
	interval  time.Duration
	load      func() float64

	// Runtime state
	logger    log.Logger
	app       event.Application
	container event.Container
	gated     bool
	cancel    context.CancelFunc
	wg        conc.WaitGroup
}

// Config holds configuration options for the resource gating plugin.
type Config struct {
	// Threshold is the load above which readiness is withdrawn.
	// Default: 0.85
	Threshold float64

	// Interval is the time between load samples.
	// Default: 5 seconds
	Interval time.Duration

	// Load samples the current load as a fraction.
	// Default: CPU usage across all cores
	Load func() float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.85,
		Interval:  5 * time.Second,
		Load:      CPUUsage,
	}
}

// CPUUsage returns the CPU usage since the previous call as a fraction
// (0.0-1.0). It returns 0 when the usage cannot be read.
func CPUUsage() float64 {
	pct, err := cpu.Percent(0, false)
	if err != nil || len(pct) == 0 {
		return 0
	}
	return pct[0] / 100
}

// New creates a new resource gating plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.85
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Load == nil {
		cfg.Load = CPUUsage
	}

	return &Plugin{
		threshold: cfg.Threshold,
		interval:  cfg.Interval,
		load:      cfg.Load,
		logger:    log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "resourcegating"
}

// Initialize registers the listener that starts sampling on ready and
// stops when the container closes.
func (p *Plugin) Initialize(ctx context.Context, cfg bootbus.PluginConfig) error {
	p.mu.Lock()
	p.logger = log.OrNoop(cfg.Logger)
	p.mu.Unlock()

	types := event.Types(event.TypeReady, event.TypeContainerClosed)
	cfg.Application.AddListeners(event.ListenerFunc(types, func(e *event.Event) error {
		if e.Type() == event.TypeReady {
			p.start(e.Source(), e.Container())
			return nil
		}
		p.stop()
		return nil
	}))

	p.logger.Info("resource gating plugin initialized", log.Float64("threshold", p.threshold))
	return nil
}

// Shutdown stops sampling.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.stop()
	return nil
}

// Gated reports whether readiness is currently withdrawn.
func (p *Plugin) Gated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gated
}

func (p *Plugin) start(app event.Application, c event.Container) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil || c == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.app = app
	p.container = c
	p.cancel = cancel

	p.wg.Go(func() { p.sampleLoop(ctx) })
}

func (p *Plugin) stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Plugin) sampleLoop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check()
		}
	}
}

// check samples the load and publishes a readiness change when the gate
// flips.
func (p *Plugin) check() {
	load := p.load()
	over := load > p.threshold

	p.mu.Lock()
	if over == p.gated {
		p.mu.Unlock()
		return
	}
	p.gated = over
	app, c := p.app, p.container
	p.mu.Unlock()

	state := event.ReadinessAcceptingTraffic
	if over {
		state = event.ReadinessRefusingTraffic
	}
	p.logger.Info("resource gate changed",
		log.Float64("load", load),
		log.Float64("threshold", p.threshold),
		log.String("readiness", string(state)),
	)
	if err := c.Publish(event.NewAvailabilityChange(app, c, state)); err != nil {
		p.logger.Warn("failed to publish readiness change", log.Err(err))
	}
}

// Ensure Plugin implements bootbus.Plugin.
var _ bootbus.Plugin = (*Plugin)(nil)
