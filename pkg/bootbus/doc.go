// Package bootbus runs an application through its lifecycle phases and
// publishes an event for each of them.
//
// Phases fire in a fixed order: starting, environment-prepared,
// context-initialized, context-loaded, started, ready. Until the container
// is loaded, events go through a bootstrap multicaster holding the
// application listeners. From context-loaded on, the listeners are attached
// to the container and the container's own multicaster delivers started,
// ready and the availability changes that follow them. A failure at any
// point publishes a failed event, through the container if it is active or
// else through the bootstrap multicaster with errors logged.
//
// # Basic Usage
//
//	application, err := bootbus.New("orders",
//	    bootbus.WithLogger(logger),
//	    bootbus.WithListeners(event.ListenerFunc(event.AllTypes, func(e *event.Event) error {
//	        logger.Info("event", log.Stringer("type", e.Type()))
//	        return nil
//	    })),
//	)
//	if err != nil {
//	    return err
//	}
//
//	c, err := application.Run(ctx, os.Args[1:]...)
//	if err != nil {
//	    var pe *domain.PhaseError
//	    errors.As(err, &pe) // pe.Phase names the aborted phase
//	    return err
//	}
//	defer application.Shutdown(context.Background())
//	_ = c
//
// # Containers
//
// The container comes from a [factory.Factory]: candidates registered with
// [WithCandidates] are asked first, then the built-in server and reactive
// candidates, and a generic container is used when every candidate declines.
//
// # Plugins
//
// Plugins are initialized before starting and usually register listeners:
//
//	import "github.com/bft-labs/bootbus/plugins/pidfile"
//	import "github.com/bft-labs/bootbus/plugins/metrics"
//
//	application, err := bootbus.New("orders",
//	    pidfile.WithPIDFile(pidfile.Config{Path: "/run/orders.pid"}),
//	    metrics.WithMetrics(registry),
//	)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// Use [ModuleVersions] to get versions of all sub-modules and [CompatibilityMatrix]
// to check minimum compatible versions.
package bootbus
