// Package pidfile writes the process id to a file during startup and
// removes it when the container closes.
package pidfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// Environment properties that override the plugin configuration.
const (
	PathKey             = "pid.file"
	FailOnWriteErrorKey = "pid.fail-on-write-error"
)

// Plugin implements PID file writing.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path             string
	trigger          event.Type
	failOnWriteError bool

	// Runtime state
	logger  log.Logger
	written string
	pid     func() int
}

// Config holds configuration options for the PID file plugin.
type Config struct {
	// Path is the file to write. The pid.file environment property, when
	// set, takes precedence.
	Path string

	// Trigger is the phase on which the file is written. Starting, failed
	// and non-phase types are replaced by the default.
	// Default: context-loaded
	Trigger event.Type

	// FailOnWriteError fails the run when the file cannot be written.
	// Otherwise the error is logged.
	// Default: false
	FailOnWriteError bool
}

// DefaultConfig returns a Config writing path on context-loaded.
func DefaultConfig(path string) Config {
	return Config{
		Path:    path,
		Trigger: event.TypeContextLoaded,
	}
}

// New creates a new PID file plugin with the given configuration.
func New(cfg Config) *Plugin {
	switch cfg.Trigger {
	case event.TypeEnvironmentPrepared, event.TypeContextInitialized, event.TypeContextLoaded,
		event.TypeStarted, event.TypeReady:
	default:
		cfg.Trigger = event.TypeContextLoaded
	}
	return &Plugin{
		path:             cfg.Path,
		trigger:          cfg.Trigger,
		failOnWriteError: cfg.FailOnWriteError,
		logger:           log.NewNoopLogger(),
		pid:              os.Getpid,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "pidfile"
}

// Initialize registers the write and removal listener.
func (p *Plugin) Initialize(ctx context.Context, cfg bootbus.PluginConfig) error {
	p.mu.Lock()
	p.logger = log.OrNoop(cfg.Logger)
	p.mu.Unlock()

	types := event.Types(event.TypeEnvironmentPrepared, p.trigger, event.TypeContainerClosed)
	cfg.Application.AddListeners(event.ListenerFunc(types, p.onEvent))
	return nil
}

// Shutdown removes the file if it was written.
func (p *Plugin) Shutdown(ctx context.Context) error {
	return p.remove()
}

// Path returns the file written, or "" if nothing was written.
func (p *Plugin) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

func (p *Plugin) onEvent(e *event.Event) error {
	switch e.Type() {
	case event.TypeContainerClosed:
		return p.remove()
	case event.TypeEnvironmentPrepared:
		p.configure(e.Environment())
		if p.trigger != event.TypeEnvironmentPrepared {
			return nil
		}
	}
	if e.Type() != p.trigger {
		return nil
	}

	err := p.write()
	if err == nil {
		return nil
	}
	p.mu.Lock()
	fail := p.failOnWriteError
	p.mu.Unlock()
	if fail {
		return err
	}
	p.logger.Warn("cannot write pid file", log.Err(err))
	return nil
}

// configure applies environment overrides.
func (p *Plugin) configure(env event.Environment) {
	if env == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := env.Get(PathKey); ok && v != "" {
		p.path = v
	}
	if v, ok := env.Get(FailOnWriteErrorKey); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			p.failOnWriteError = b
		}
	}
}

func (p *Plugin) write() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == "" {
		return errors.New("pid file path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create pid file directory: %w", err)
	}

	// Write to a temporary file and rename so readers never see a partial pid.
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(p.pid())+"\n"), 0644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename pid file: %w", err)
	}

	p.written = p.path
	p.logger.Info("pid file written", log.String("path", p.path))
	return nil
}

func (p *Plugin) remove() error {
	p.mu.Lock()
	path := p.written
	p.written = ""
	p.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("cannot remove pid file", log.String("path", path), log.Err(err))
		return err
	}
	p.logger.Debug("pid file removed", log.String("path", path))
	return nil
}

// Ensure Plugin implements bootbus.Plugin.
var _ bootbus.Plugin = (*Plugin)(nil)
