// Package lifecycle defines the run listener contract and its composite.
//
// A [RunListener] observes the phases of one application run: starting,
// environment-prepared, context-prepared, context-loaded, started, ready,
// and failed. The event publisher in package publisher is the run listener
// that turns these calls into events; [StartupInfoLogger] is a second one
// that only logs.
//
// # Usage
//
//	listeners := lifecycle.NewRunListeners(logger,
//	    publisher.New(app, args, logger),
//	    lifecycle.NewStartupInfoLogger(app.Name(), args, logger),
//	)
//
//	if err := listeners.Starting(bc); err != nil {
//	    listeners.Failed(nil, err)
//	    return err
//	}
//
// # Failure Semantics
//
// Every phase method except Failed stops at the first listener error and
// returns it. Failed always reaches every listener: errors and panics are
// logged at warn level and swallowed.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
