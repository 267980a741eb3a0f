// Package event defines the lifecycle events broadcast while an application
// boots, and the contracts shared by everything that produces or consumes them.
//
// # Event Types
//
// Each [Event] carries a [Type] tag. The lifecycle phases fire in a fixed order:
//
//	starting -> environment-prepared -> context-initialized -> context-loaded -> started -> ready
//
// with failed firing at most once, when a run aborts. Containers additionally
// publish availability-change, container-refreshed, container-closed and
// environment-changed events.
//
// # Listeners
//
// A [Listener] declares the types it accepts through Supports; multicasters
// skip it for everything else:
//
//	l := event.ListenerFunc(event.Types(event.TypeStarted, event.TypeReady), func(e *event.Event) error {
//	    fmt.Println(e.Type(), e.Elapsed())
//	    return nil
//	})
//
// Listeners are identified by identity. Use pointer types so the same
// listener registered twice is recognised as a duplicate.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package event
