// Package configwatcher watches a property file once the application is
// ready. Changed values are written to the environment and announced with an
// environment-changed event published through the container.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"

	"github.com/bft-labs/bootbus/internal/propfile"
	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// Plugin implements config watching functionality.
// It starts watching on ready and stops when the container closes or the
// plugin is shut down.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	path          string
	debounceDelay time.Duration
	reloadRetries int

	// Runtime state
	logger      log.Logger
	environment event.Environment
	container   event.Container
	last        map[string]string
	cancel      context.CancelFunc
	wg          conc.WaitGroup
	debounce    *time.Timer
	reloads     int
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the property file to watch.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// ReloadRetries is how many more times a reload reads the file when
	// it is missing or cannot be parsed, one debounce delay apart. Editors
	// that save by rename leave such a window.
	// Default: 3
	ReloadRetries int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path:          path,
		DebounceDelay: 100 * time.Millisecond,
		ReloadRetries: 3,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.ReloadRetries < 0 {
		cfg.ReloadRetries = 0
	}

	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		reloadRetries: cfg.ReloadRetries,
		logger:        log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize registers the listener that starts and stops the watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg bootbus.PluginConfig) error {
	p.mu.Lock()
	p.logger = log.OrNoop(cfg.Logger)
	p.mu.Unlock()

	if p.path == "" {
		p.logger.Warn("config watcher disabled: no path configured")
		return nil
	}

	types := event.Types(event.TypeEnvironmentPrepared, event.TypeReady, event.TypeContainerClosed)
	cfg.Application.AddListeners(event.ListenerFunc(types, func(e *event.Event) error {
		switch e.Type() {
		case event.TypeEnvironmentPrepared:
			p.mu.Lock()
			p.environment = e.Environment()
			p.mu.Unlock()
		case event.TypeReady:
			p.start(ctx, e.Container())
		case event.TypeContainerClosed:
			p.stop()
		}
		return nil
	}))
	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.stop()
	return nil
}

// Reloads returns how many reloads changed at least one property.
func (p *Plugin) Reloads() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reloads
}

func (p *Plugin) start(ctx context.Context, c event.Container) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.environment == nil {
		return
	}

	// Changes are measured against the file as it is now.
	if props, err := propfile.Load(p.path); err == nil {
		p.last = props
	} else {
		p.last = map[string]string{}
	}

	// The watcher is registered before start returns so that writes made
	// right after the run completes are seen.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("config watcher: failed to create watcher", log.Err(err))
		return
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		p.logger.Error("config watcher: failed to watch directory", log.Err(err))
		return
	}
	p.container = c

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel

	p.wg.Go(func() { p.watchLoop(watchCtx, watcher) })

	p.logger.Info("config watcher started", log.String("path", p.path))
}

func (p *Plugin) stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		p.wg.Wait()
	}
}

// watchLoop consumes events for the directory of the file so that editors
// replacing the file by rename are seen too. It closes watcher on return.
func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	target := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher: watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload(ctx)
	})
}

// reload applies changed values and publishes them through the container.
func (p *Plugin) reload(ctx context.Context) {
	var props map[string]string
	read := func() error {
		var err error
		props, err = propfile.Load(p.path)
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.debounceDelay), uint64(p.reloadRetries))
	if err := backoff.Retry(read, backoff.WithContext(policy, ctx)); err != nil {
		p.logger.Warn("config watcher: reload failed", log.String("path", p.path), log.Err(err))
		return
	}

	p.mu.Lock()
	changed := propfile.Diff(p.last, props)
	p.last = props
	environment := p.environment
	c := p.container
	if len(changed) > 0 {
		p.reloads++
	}
	p.mu.Unlock()

	if len(changed) == 0 {
		return
	}

	for _, k := range changed {
		environment.Set(k, props[k])
	}

	if err := c.Publish(event.NewEnvironmentChanged(c, environment, changed)); err != nil {
		p.logger.Warn("config watcher: publishing environment change failed", log.Err(err))
		return
	}
	p.logger.Info("config reloaded",
		log.String("path", p.path),
		log.Strings("changed", changed),
	)
}

// Ensure Plugin implements bootbus.Plugin.
var _ bootbus.Plugin = (*Plugin)(nil)
