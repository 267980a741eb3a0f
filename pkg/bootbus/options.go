package bootbus

import (
	"github.com/bft-labs/bootbus/pkg/container"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/factory"
	"github.com/bft-labs/bootbus/pkg/lifecycle"
	"github.com/bft-labs/bootbus/pkg/log"
)

// Re-export types from sub-packages for convenient access.
// Users can also import sub-packages directly for selective import.
type (
	// Logger is the Logger interface from pkg/log.
	Logger = log.Logger

	// Listener is the Listener interface from pkg/event.
	Listener = event.Listener

	// RunListener is the RunListener interface from pkg/lifecycle.
	RunListener = lifecycle.RunListener

	// Container is the Configurable interface from pkg/container.
	Container = container.Configurable
)

// Initializer customizes the container after its environment is set and
// before the context-initialized phase.
type Initializer func(c container.Configurable) error

// Option configures optional behavior of an Application.
type Option func(*options)

// options holds the optional configuration for an Application.
type options struct {
	logger       log.Logger
	listeners    []event.Listener
	runListeners []lifecycle.RunListener
	flavor       factory.Flavor
	candidates   []factory.Candidate
	initializers []Initializer
	runners      []Runner
	refreshHooks []container.RefreshHook
	properties   map[string]string
	profiles     []string
	eventHandler EventHandler
	plugins      []Plugin
	startupInfo  bool
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger:      log.NewNoopLogger(),
		flavor:      factory.FlavorNone,
		startupInfo: true,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithListeners appends application listeners. They receive every event
// from starting onwards.
func WithListeners(listeners ...Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// WithRunListener registers an extra run listener. Run listeners are called
// after the event publisher, in registration order.
func WithRunListener(l RunListener) Option {
	return func(o *options) {
		o.runListeners = append(o.runListeners, l)
	}
}

// WithFlavor selects the container flavor. Default: factory.FlavorNone.
func WithFlavor(f factory.Flavor) Option {
	return func(o *options) {
		o.flavor = f
	}
}

// WithCandidates registers factory candidates. They are consulted in
// registration order, before the built-in server and reactive candidates.
func WithCandidates(candidates ...factory.Candidate) Option {
	return func(o *options) {
		o.candidates = append(o.candidates, candidates...)
	}
}

// WithInitializer registers a container initializer.
func WithInitializer(fn Initializer) Option {
	return func(o *options) {
		o.initializers = append(o.initializers, fn)
	}
}

// WithRunner registers a runner, called after started and before ready.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runners = append(o.runners, r)
	}
}

// WithRefreshHook registers a hook the container runs while refreshing.
func WithRefreshHook(h container.RefreshHook) Option {
	return func(o *options) {
		o.refreshHooks = append(o.refreshHooks, h)
	}
}

// WithProperties sets environment properties, overriding process and file
// values.
func WithProperties(props map[string]string) Option {
	return func(o *options) {
		if o.properties == nil {
			o.properties = make(map[string]string, len(props))
		}
		for k, v := range props {
			o.properties[k] = v
		}
	}
}

// WithProfiles sets the active profiles.
func WithProfiles(profiles ...string) Option {
	return func(o *options) {
		o.profiles = append(o.profiles, profiles...)
	}
}

// WithEventHandler sets a handler for phase transitions.
// The handler is called synchronously from Run.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Run begins.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithoutStartupInfo disables the startup info run listener.
func WithoutStartupInfo() Option {
	return func(o *options) {
		o.startupInfo = false
	}
}
