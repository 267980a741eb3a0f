// Package bootbus runs an application through its startup lifecycle and
// publishes an event for every phase.
//
// Example usage:
//
//	c, err := bootbus.Run(context.Background(), "orders",
//	    bootbus.WithListeners(myListener),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
// The full API, including plugins and the failure path, lives in
// pkg/bootbus.
package bootbus

import (
	"context"

	core "github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
)

// Application is a configured application ready to run.
type Application = core.Application

// Option configures an Application.
type Option = core.Option

// Container is the runtime that takes over event delivery after startup.
type Container = core.Container

// Listener receives lifecycle events.
type Listener = event.Listener

// New creates an Application with the given options.
func New(name string, opts ...Option) (*Application, error) {
	return core.New(name, opts...)
}

// Run creates the application and runs it once. It blocks until the
// application is ready or the run has failed.
func Run(ctx context.Context, name string, opts ...Option) (Container, error) {
	app, err := core.New(name, opts...)
	if err != nil {
		return nil, err
	}
	return app.Run(ctx)
}

// WithListeners registers application listeners.
func WithListeners(listeners ...Listener) Option {
	return core.WithListeners(listeners...)
}

// WithLogger sets the logger.
func WithLogger(logger core.Logger) Option {
	return core.WithLogger(logger)
}
