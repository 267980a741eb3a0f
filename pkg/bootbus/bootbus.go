package bootbus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/bootbus/internal/app"
	"github.com/bft-labs/bootbus/internal/domain"
	"github.com/bft-labs/bootbus/pkg/container"
	"github.com/bft-labs/bootbus/pkg/env"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/factory"
	"github.com/bft-labs/bootbus/pkg/lifecycle"
	"github.com/bft-labs/bootbus/pkg/log"
	"github.com/bft-labs/bootbus/pkg/publisher"
)

// Phase names reported by PhaseError for failures outside a lifecycle phase.
const (
	PhasePlugins    = "plugins"
	PhaseFactory    = "factory"
	PhaseInitialize = "initialize"
	PhaseRefresh    = "refresh"
	PhaseRunners    = "runners"
)

// DefaultEnvironmentType names the environment used when no factory
// candidate provides one.
const DefaultEnvironmentType = "standard"

// Application drives one run through the lifecycle phases and publishes an
// event for each of them.
type Application struct {
	name    string
	opts    options
	logger  log.Logger
	factory *factory.Factory

	mu        sync.RWMutex
	listeners []event.Listener
	ran       bool
	container container.Configurable
	plugins   []Plugin
}

// New creates an application with the given name.
// Returns an error if the name is empty or module versions are incompatible.
func New(name string, opts ...Option) (*Application, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: application name is required", domain.ErrInvalidConfig)
	}

	// Validate module version compatibility
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrNoop(o.logger)

	candidates := append(append([]factory.Candidate(nil), o.candidates...), factory.Defaults(logger)...)

	a := &Application{
		name:    name,
		opts:    o,
		logger:  logger,
		factory: factory.New(logger, candidates...),
	}
	a.AddListeners(o.listeners...)
	return a, nil
}

// Name returns the application name.
func (a *Application) Name() string { return a.name }

// Listeners returns a copy of the application listeners, in order.
func (a *Application) Listeners() []event.Listener {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]event.Listener(nil), a.listeners...)
}

// AddListeners appends application listeners. It is safe to call from a
// listener; phases that still go through the bootstrap multicaster pick the
// new listeners up.
func (a *Application) AddListeners(listeners ...event.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			a.listeners = append(a.listeners, l)
		}
	}
}

// Container returns the container created by Run, or nil.
func (a *Application) Container() container.Configurable {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.container
}

// Run takes the application through every phase and returns the refreshed
// container. An application runs at most once.
//
// On failure the failed event is published, the container is closed if it
// exists, plugins are shut down, and a *domain.PhaseError naming the
// aborted phase is returned. A plugin that fails to initialize fails the run
// the same way, before starting; listeners registered by the plugins that
// did initialize receive the failed event.
func (a *Application) Run(ctx context.Context, args ...string) (container.Configurable, error) {
	a.mu.Lock()
	if a.ran {
		a.mu.Unlock()
		return nil, domain.ErrAlreadyRan
	}
	a.ran = true
	a.mu.Unlock()

	r := &run{
		app:     a,
		ctx:     ctx,
		args:    append([]string(nil), args...),
		begin:   time.Now(),
		tracker: app.NewLifecycle(a.logger, &eventEmitterWrapper{handler: a.opts.eventHandler}),
	}

	runListeners := []lifecycle.RunListener{publisher.New(a, r.args, a.logger)}
	if a.opts.startupInfo {
		runListeners = append(runListeners, lifecycle.NewStartupInfoLogger(a.name, r.args, a.logger))
	}
	runListeners = append(runListeners, a.opts.runListeners...)
	r.listeners = lifecycle.NewRunListeners(a.logger, runListeners...)

	if err := a.initializePlugins(ctx); err != nil {
		return nil, r.fail(PhasePlugins, err)
	}

	return r.execute()
}

// Shutdown closes the container created by Run and shuts plugins down in
// reverse registration order.
func (a *Application) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	c := a.container
	a.mu.Unlock()

	var err error
	if c != nil {
		err = c.Close()
	}
	a.shutdownPlugins(ctx)
	return err
}

func (a *Application) initializePlugins(ctx context.Context) error {
	cfg := PluginConfig{Application: a, Logger: a.logger}
	for _, p := range a.opts.plugins {
		if err := p.Initialize(ctx, cfg); err != nil {
			a.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		a.mu.Lock()
		a.plugins = append(a.plugins, p)
		a.mu.Unlock()
		a.logger.Debug("plugin initialized", log.String("plugin", p.Name()))
	}
	return nil
}

func (a *Application) shutdownPlugins(ctx context.Context) {
	a.mu.Lock()
	plugins := a.plugins
	a.plugins = nil
	a.mu.Unlock()

	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			a.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			a.logger.Debug("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// run holds the state of a single Run call.
type run struct {
	app       *Application
	ctx       context.Context
	args      []string
	begin     time.Time
	tracker   *app.Lifecycle
	listeners *lifecycle.RunListeners
	container container.Configurable
}

func (r *run) execute() (container.Configurable, error) {
	a := r.app
	bc := event.NewBootstrapContext()

	if err := r.phase(event.TypeStarting, func() error { return r.listeners.Starting(bc) }); err != nil {
		return nil, err
	}

	environment, err := r.prepareEnvironment()
	if err != nil {
		return nil, r.fail(PhaseFactory, err)
	}
	if err := r.phase(event.TypeEnvironmentPrepared, func() error {
		return r.listeners.EnvironmentPrepared(bc, environment)
	}); err != nil {
		return nil, err
	}

	c, err := a.factory.CreateContainer(a.opts.flavor)
	if err != nil {
		return nil, r.fail(PhaseFactory, err)
	}
	r.container = c
	a.mu.Lock()
	a.container = c
	a.mu.Unlock()

	c.SetEnvironment(environment)
	for _, initializer := range a.opts.initializers {
		if err := initializer(c); err != nil {
			return nil, r.fail(PhaseInitialize, err)
		}
	}
	if err := r.phase(event.TypeContextInitialized, func() error { return r.listeners.ContextPrepared(c) }); err != nil {
		return nil, err
	}
	bc.Close(c)

	for _, h := range a.opts.refreshHooks {
		c.AddRefreshHook(h)
	}
	if err := r.phase(event.TypeContextLoaded, func() error { return r.listeners.ContextLoaded(c) }); err != nil {
		return nil, err
	}

	if err := c.Refresh(r.ctx); err != nil {
		return nil, r.fail(PhaseRefresh, err)
	}

	if err := r.phase(event.TypeStarted, func() error {
		return r.listeners.Started(c, time.Since(r.begin))
	}); err != nil {
		return nil, err
	}

	for _, runner := range a.opts.runners {
		if err := r.ctx.Err(); err != nil {
			return nil, r.fail(PhaseRunners, err)
		}
		if err := runner.Run(r.ctx, r.args); err != nil {
			return nil, r.fail(PhaseRunners, err)
		}
	}

	if err := r.phase(event.TypeReady, func() error {
		return r.listeners.Ready(c, time.Since(r.begin))
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// phase enters t and runs fn, turning any error into a failed run.
func (r *run) phase(t event.Type, fn func() error) error {
	if err := r.tracker.Enter(t); err != nil {
		return r.fail(t.String(), err)
	}
	if err := fn(); err != nil {
		return r.fail(t.String(), err)
	}
	return nil
}

func (r *run) prepareEnvironment() (event.Environment, error) {
	a := r.app
	environment, err := a.factory.CreateEnvironment(a.opts.flavor)
	if err != nil {
		return nil, err
	}
	if environment == nil {
		kind, err := a.factory.EnvironmentType(a.opts.flavor)
		if err != nil {
			return nil, err
		}
		if kind == "" {
			kind = DefaultEnvironmentType
		}
		environment = env.FromProcess(kind, factory.EnvPrefix)
	}
	for k, v := range a.opts.properties {
		environment.Set(k, v)
	}
	if len(a.opts.profiles) > 0 {
		environment.Set(env.ProfilesKey, strings.Join(a.opts.profiles, ","))
	}
	return environment, nil
}

// fail publishes the failure and releases what the run created.
func (r *run) fail(phase string, cause error) error {
	a := r.app
	if r.tracker.CanFail() {
		_ = r.tracker.TransitionTo(app.StateFailed, phase)
	}

	var c event.Container
	if r.container != nil {
		c = r.container
	}
	if r.listeners != nil {
		_ = r.listeners.Failed(c, cause)
	}

	if r.container != nil {
		if err := r.container.Close(); err != nil {
			a.logger.Warn("error closing container after failed run", log.Err(err))
		}
	}
	a.shutdownPlugins(context.WithoutCancel(r.ctx))

	return &domain.PhaseError{Phase: phase, Err: cause}
}
