package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bft-labs/bootbus/internal/domain"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
	"github.com/bft-labs/bootbus/pkg/multicast"
)

// RefreshHook runs while a container refreshes. An error aborts the refresh
// and leaves the container inactive.
type RefreshHook func(ctx context.Context, c Configurable) error

// Configurable is a container the lifecycle driver can set up, refresh and close.
type Configurable interface {
	event.Container
	event.ListenerSource

	// Name identifies the container in logs.
	Name() string

	// Environment returns the environment the container was configured with.
	Environment() event.Environment

	// SetEnvironment replaces the container's environment.
	SetEnvironment(env event.Environment)

	// AddRefreshHook registers h to run during Refresh.
	AddRefreshHook(h RefreshHook)

	// Refresh initialises the container's multicaster, runs refresh hooks and
	// makes the container active.
	Refresh(ctx context.Context) error

	// Close deactivates the container. It is safe to call more than once.
	Close() error
}

// Option configures a Generic container.
type Option func(*Generic)

// WithLogger sets the logger used for container diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(g *Generic) { g.logger = log.OrNoop(logger) }
}

// WithEnvironment sets the initial environment.
func WithEnvironment(env event.Environment) Option {
	return func(g *Generic) { g.env = env }
}

// Generic is the default Configurable implementation.
type Generic struct {
	mu          sync.RWMutex
	id          string
	name        string
	env         event.Environment
	logger      log.Logger
	listeners   []event.Listener
	multicaster *multicast.Multicaster
	early       []*event.Event
	hooks       []RefreshHook
	active      bool
	closed      bool
}

// NewGeneric creates an inactive container.
func NewGeneric(name string, opts ...Option) *Generic {
	g := &Generic{
		id:     uuid.New().String(),
		name:   name,
		logger: log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the unique identifier of the container.
func (g *Generic) ID() string { return g.id }

// Name returns the container name.
func (g *Generic) Name() string { return g.name }

// Environment returns the container's environment.
func (g *Generic) Environment() event.Environment {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.env
}

// SetEnvironment replaces the container's environment.
func (g *Generic) SetEnvironment(env event.Environment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.env = env
}

// AddListener attaches l. Listeners attached after refresh receive events
// published from then on.
func (g *Generic) AddListener(l event.Listener) {
	if l == nil {
		return
	}
	g.mu.Lock()
	if event.ContainsListener(g.listeners, l) {
		g.mu.Unlock()
		return
	}
	g.listeners = append(g.listeners, l)
	m := g.multicaster
	g.mu.Unlock()

	if m != nil {
		m.AddListener(l)
	}
}

// Listeners returns the attached listeners in attachment order.
func (g *Generic) Listeners() []event.Listener {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]event.Listener, len(g.listeners))
	copy(out, g.listeners)
	return out
}

// AddRefreshHook registers h to run during Refresh, in registration order.
func (g *Generic) AddRefreshHook(h RefreshHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, h)
}

// IsActive reports whether the container is refreshed and not closed.
func (g *Generic) IsActive() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// Publish delivers e to the attached listeners. Before Refresh the event is
// buffered and replayed when the multicaster is created.
func (g *Generic) Publish(e *event.Event) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return domain.ErrContainerClosed
	}
	if g.multicaster == nil {
		g.early = append(g.early, e)
		g.mu.Unlock()
		return nil
	}
	m := g.multicaster
	g.mu.Unlock()

	return m.Multicast(e)
}

// Refresh creates the multicaster, replays early events, runs the refresh
// hooks and activates the container, announcing it with a
// container-refreshed event.
func (g *Generic) Refresh(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return domain.ErrContainerClosed
	}
	if g.multicaster != nil {
		g.mu.Unlock()
		return domain.ErrAlreadyRefreshed
	}
	m := multicast.New(g.logger)
	for _, l := range g.listeners {
		m.AddListener(l)
	}
	g.multicaster = m
	early := g.early
	g.early = nil
	hooks := make([]RefreshHook, len(g.hooks))
	copy(hooks, g.hooks)
	g.mu.Unlock()

	for _, e := range early {
		if err := m.Multicast(e); err != nil {
			return fmt.Errorf("replay early %s event: %w", e.Type(), err)
		}
	}

	for _, h := range hooks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h(ctx, g); err != nil {
			return fmt.Errorf("refresh %s: %w", g.name, err)
		}
	}

	g.mu.Lock()
	g.active = true
	g.mu.Unlock()

	g.logger.Debug("container refreshed",
		log.String("container", g.name),
		log.Int("listeners", len(m.Listeners())),
	)

	return m.Multicast(event.NewContainerRefreshed(g))
}

// Close announces the shutdown with a container-closed event when the
// container is active, then deactivates it. Listener failures are logged.
func (g *Generic) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	wasActive := g.active
	m := g.multicaster
	g.mu.Unlock()

	if wasActive {
		if err := m.Multicast(event.NewContainerClosed(g)); err != nil {
			g.logger.Warn("error publishing container-closed event",
				log.String("container", g.name),
				log.Err(err),
			)
		}
	}

	g.mu.Lock()
	g.active = false
	g.closed = true
	g.early = nil
	g.mu.Unlock()

	g.logger.Debug("container closed", log.String("container", g.name))
	return nil
}

var _ Configurable = (*Generic)(nil)
