// Package configfile loads a TOML or YAML property file into the
// application environment when it is prepared.
//
// File values have the lowest precedence: a key already present in the
// environment, from the process or from explicit properties, is kept. The
// optional "listeners" key names extra listeners to attach, looked up in a
// [Registry]. They receive events from context-initialized on.
package configfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bft-labs/bootbus/internal/propfile"
	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// ListenersKey lists registry names of listeners to attach, comma separated.
const ListenersKey = "listeners"

// SourceKey is set to the path of the loaded file.
const SourceKey = "config.source"

// Config holds configuration options for the config file plugin.
type Config struct {
	// Path is the property file. Its extension selects the format.
	Path string

	// Required fails the run when the file does not exist.
	// Default: false
	Required bool

	// Registry resolves names under the listeners key.
	// Default: an empty registry
	Registry *Registry
}

// Plugin loads the property file on environment-prepared.
type Plugin struct {
	bootbus.BasePlugin

	mu       sync.RWMutex
	cfg      Config
	app      *bootbus.Application
	logger   log.Logger
	loaded   map[string]string
	attached []string
}

// New creates a config file plugin.
func New(cfg Config) *Plugin {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	return &Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string { return "configfile" }

// Initialize registers the environment-prepared listener.
func (p *Plugin) Initialize(ctx context.Context, cfg bootbus.PluginConfig) error {
	if p.cfg.Path == "" {
		return fmt.Errorf("configfile: path is required")
	}
	if _, err := propfile.FormatOf(p.cfg.Path); err != nil {
		return err
	}

	p.mu.Lock()
	p.app = cfg.Application
	p.logger = log.OrNoop(cfg.Logger)
	p.mu.Unlock()

	cfg.Application.AddListeners(event.ListenerFunc(event.Types(event.TypeEnvironmentPrepared), p.onEnvironmentPrepared))
	return nil
}

// Loaded returns the properties read from the file.
func (p *Plugin) Loaded() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.loaded))
	for k, v := range p.loaded {
		out[k] = v
	}
	return out
}

// Attached returns the names of the listeners attached from the file.
func (p *Plugin) Attached() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.attached...)
}

func (p *Plugin) onEnvironmentPrepared(e *event.Event) error {
	env := e.Environment()
	if env == nil {
		return nil
	}

	props, err := propfile.Load(p.cfg.Path)
	if errors.Is(err, os.ErrNotExist) && !p.cfg.Required {
		p.logger.Debug("config file not found, skipping", log.String("path", p.cfg.Path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("configfile: %w", err)
	}

	applied := 0
	for k, v := range props {
		if _, ok := env.Get(k); ok {
			continue
		}
		env.Set(k, v)
		applied++
	}
	env.Set(SourceKey, p.cfg.Path)

	listeners, names, err := p.resolveListeners(props[ListenersKey])
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.loaded = props
	p.attached = names
	app := p.app
	p.mu.Unlock()

	if len(listeners) > 0 {
		app.AddListeners(listeners...)
	}

	p.logger.Info("loaded config file",
		log.String("path", p.cfg.Path),
		log.Int("properties", len(props)),
		log.Int("applied", applied),
		log.Strings("listeners", names),
	)
	return nil
}

func (p *Plugin) resolveListeners(value string) ([]event.Listener, []string, error) {
	var listeners []event.Listener
	var names []string
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		l, ok := p.cfg.Registry.Create(name)
		if !ok {
			return nil, nil, fmt.Errorf("configfile: unknown listener %q", name)
		}
		listeners = append(listeners, l)
		names = append(names, name)
	}
	return listeners, names, nil
}

// Ensure Plugin implements bootbus.Plugin.
var _ bootbus.Plugin = (*Plugin)(nil)
