package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of a lifecycle phase or container notification.
// Only the payload relevant to its Type is set; other accessors return zero values.
type Event struct {
	id        string
	typ       Type
	timestamp time.Time

	source Application
	args   []string

	bootstrap    *BootstrapContext
	environment  Environment
	container    Container
	elapsed      time.Duration
	cause        error
	availability AvailabilityState
	changedKeys  []string
}

// newLifecycle builds a phase event. Lifecycle events must name their source.
func newLifecycle(t Type, src Application, args []string) *Event {
	if src == nil {
		panic("event: " + t.String() + " event requires a source application")
	}
	return &Event{
		id:        uuid.New().String(),
		typ:       t,
		timestamp: time.Now(),
		source:    src,
		args:      copyStrings(args),
	}
}

// NewStarting is fired as early as possible, before anything but the
// bootstrap context exists.
func NewStarting(src Application, args []string, bc *BootstrapContext) *Event {
	e := newLifecycle(TypeStarting, src, args)
	e.bootstrap = bc
	return e
}

// NewEnvironmentPrepared is fired once the environment can be inspected and
// modified.
func NewEnvironmentPrepared(src Application, args []string, bc *BootstrapContext, env Environment) *Event {
	e := newLifecycle(TypeEnvironmentPrepared, src, args)
	e.bootstrap = bc
	e.environment = env
	return e
}

// NewContextInitialized is fired once the container has been created and
// initializers have run.
func NewContextInitialized(src Application, args []string, c Container) *Event {
	e := newLifecycle(TypeContextInitialized, src, args)
	e.container = c
	return e
}

// NewContextLoaded is fired once the container is loaded but before it is
// refreshed.
func NewContextLoaded(src Application, args []string, c Container) *Event {
	e := newLifecycle(TypeContextLoaded, src, args)
	e.container = c
	return e
}

// NewStarted is fired after the container is refreshed, before runners run.
func NewStarted(src Application, args []string, c Container, elapsed time.Duration) *Event {
	e := newLifecycle(TypeStarted, src, args)
	e.container = c
	e.elapsed = elapsed
	return e
}

// NewReady is fired once the application can service requests.
func NewReady(src Application, args []string, c Container, elapsed time.Duration) *Event {
	e := newLifecycle(TypeReady, src, args)
	e.container = c
	e.elapsed = elapsed
	return e
}

// NewFailed is fired when a run aborts. c is nil when the failure happened
// before a container was created.
func NewFailed(src Application, args []string, c Container, cause error) *Event {
	e := newLifecycle(TypeFailed, src, args)
	e.container = c
	e.cause = cause
	return e
}

// NewAvailabilityChange reports a new liveness or readiness state of the
// application running in c.
func NewAvailabilityChange(src Application, c Container, state AvailabilityState) *Event {
	return &Event{
		id:           uuid.New().String(),
		typ:          TypeAvailabilityChange,
		timestamp:    time.Now(),
		source:       src,
		args:         []string{},
		container:    c,
		availability: state,
	}
}

// NewContainerRefreshed is published by a container when its refresh completes.
func NewContainerRefreshed(c Container) *Event {
	return newContainerEvent(TypeContainerRefreshed, c)
}

// NewContainerClosed is published by a container when it is closing.
func NewContainerClosed(c Container) *Event {
	return newContainerEvent(TypeContainerClosed, c)
}

// NewEnvironmentChanged reports that keys of the container's environment
// were updated after the application started.
func NewEnvironmentChanged(c Container, env Environment, keys []string) *Event {
	e := newContainerEvent(TypeEnvironmentChanged, c)
	e.environment = env
	e.changedKeys = copyStrings(keys)
	return e
}

func newContainerEvent(t Type, c Container) *Event {
	return &Event{
		id:        uuid.New().String(),
		typ:       t,
		timestamp: time.Now(),
		args:      []string{},
		container: c,
	}
}

// ID returns the unique identifier of the event.
func (e *Event) ID() string { return e.id }

// Type returns the event's tag.
func (e *Event) Type() Type { return e.typ }

// Timestamp returns when the event was created.
func (e *Event) Timestamp() time.Time { return e.timestamp }

// Source returns the application the event belongs to. It is nil for
// container notifications.
func (e *Event) Source() Application { return e.source }

// Args returns a copy of the application arguments.
func (e *Event) Args() []string { return copyStrings(e.args) }

// BootstrapContext returns the bootstrap context of starting and
// environment-prepared events.
func (e *Event) BootstrapContext() *BootstrapContext { return e.bootstrap }

// Environment returns the environment of environment-prepared and
// environment-changed events.
func (e *Event) Environment() Environment { return e.environment }

// Container returns the container the event refers to, if any.
func (e *Event) Container() Container { return e.container }

// Elapsed returns the time taken to reach the started or ready phase.
func (e *Event) Elapsed() time.Duration { return e.elapsed }

// Cause returns the error that aborted the run for failed events.
func (e *Event) Cause() error { return e.cause }

// Availability returns the state of availability-change events.
func (e *Event) Availability() AvailabilityState { return e.availability }

// ChangedKeys returns a copy of the keys of environment-changed events.
func (e *Event) ChangedKeys() []string { return copyStrings(e.changedKeys) }

// String returns the event's type tag and id.
func (e *Event) String() string {
	return e.typ.String() + "[" + e.id + "]"
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
