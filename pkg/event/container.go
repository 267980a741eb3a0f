package event

// Container is the long-lived runtime that takes over event delivery once the
// bootstrap phases are done.
type Container interface {
	// AddListener attaches l to the container's own listener set.
	AddListener(l Listener)

	// Publish delivers e through the container's own multicaster.
	Publish(e *Event) error

	// IsActive reports whether the container finished refreshing and has not
	// been closed.
	IsActive() bool
}

// ListenerSource is implemented by containers that can enumerate the
// listeners attached to them.
type ListenerSource interface {
	Listeners() []Listener
}

// Application is the source of lifecycle events.
type Application interface {
	// Name identifies the application in logs.
	Name() string

	// Listeners returns the current, ordered application listener list.
	Listeners() []Listener
}
