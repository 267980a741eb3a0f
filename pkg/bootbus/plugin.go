package bootbus

import (
	"context"

	"github.com/bft-labs/bootbus/pkg/log"
)

// Plugin extends an application with optional behavior. Plugins usually
// register listeners on the application during Initialize.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize is called at the beginning of Run, before starting.
	// An error aborts the run.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Application.Shutdown, or when the run fails.
	Shutdown(ctx context.Context) error
}

// PluginConfig is passed to Plugin.Initialize.
type PluginConfig struct {
	Application *Application
	Logger      log.Logger
}

// BasePlugin implements Plugin with no-op methods.
// Embed it and override what you need.
type BasePlugin struct{}

func (BasePlugin) Name() string                                         { return "base" }
func (BasePlugin) Initialize(ctx context.Context, _ PluginConfig) error { return nil }
func (BasePlugin) Shutdown(ctx context.Context) error                   { return nil }
