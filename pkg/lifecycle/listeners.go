package lifecycle

import (
	"fmt"
	"time"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// RunListeners fans each phase out to a fixed list of run listeners.
type RunListeners struct {
	listeners []RunListener
	logger    log.Logger
}

// NewRunListeners creates a composite over listeners, called in order.
// Nil entries are dropped.
func NewRunListeners(logger log.Logger, listeners ...RunListener) *RunListeners {
	r := &RunListeners{logger: log.OrNoop(logger)}
	for _, l := range listeners {
		if l != nil {
			r.listeners = append(r.listeners, l)
		}
	}
	return r
}

// Len returns the number of listeners.
func (r *RunListeners) Len() int { return len(r.listeners) }

// Starting calls Starting on every listener, stopping at the first error.
func (r *RunListeners) Starting(bc *event.BootstrapContext) error {
	return r.each(event.TypeStarting, func(l RunListener) error { return l.Starting(bc) })
}

// EnvironmentPrepared calls EnvironmentPrepared on every listener,
// stopping at the first error.
func (r *RunListeners) EnvironmentPrepared(bc *event.BootstrapContext, env event.Environment) error {
	return r.each(event.TypeEnvironmentPrepared, func(l RunListener) error { return l.EnvironmentPrepared(bc, env) })
}

// ContextPrepared calls ContextPrepared on every listener, stopping at the
// first error.
func (r *RunListeners) ContextPrepared(c event.Container) error {
	return r.each(event.TypeContextInitialized, func(l RunListener) error { return l.ContextPrepared(c) })
}

// ContextLoaded calls ContextLoaded on every listener, stopping at the first
// error.
func (r *RunListeners) ContextLoaded(c event.Container) error {
	return r.each(event.TypeContextLoaded, func(l RunListener) error { return l.ContextLoaded(c) })
}

// Started calls Started on every listener, stopping at the first error.
func (r *RunListeners) Started(c event.Container, elapsed time.Duration) error {
	return r.each(event.TypeStarted, func(l RunListener) error { return l.Started(c, elapsed) })
}

// Ready calls Ready on every listener, stopping at the first error.
func (r *RunListeners) Ready(c event.Container, elapsed time.Duration) error {
	return r.each(event.TypeReady, func(l RunListener) error { return l.Ready(c, elapsed) })
}

// Failed calls Failed on every listener. Errors and panics are logged and
// never stop the remaining listeners, so it always returns nil.
func (r *RunListeners) Failed(c event.Container, cause error) error {
	for _, l := range r.listeners {
		if err := callFailed(l, c, cause); err != nil {
			r.logger.Warn("error handling failed run",
				log.String("listener", fmt.Sprintf("%T", l)),
				log.Err(err),
			)
		}
	}
	return nil
}

func (r *RunListeners) each(phase event.Type, fn func(RunListener) error) error {
	for _, l := range r.listeners {
		if err := fn(l); err != nil {
			r.logger.Debug("run listener failed",
				log.Stringer("phase", phase),
				log.String("listener", fmt.Sprintf("%T", l)),
				log.Err(err),
			)
			return err
		}
	}
	return nil
}

func callFailed(l RunListener, c event.Container, cause error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.Failed(c, cause)
}
