package multicast

import (
	"fmt"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// DispatchError reports a listener that failed while handling an event.
type DispatchError struct {
	Listener event.Listener
	Event    *event.Event
	Err      error

	// Panic holds the recovered value when the listener panicked.
	Panic interface{}
}

func (e *DispatchError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("listener %T panicked on %s event: %v", e.Listener, e.Event.Type(), e.Panic)
	}
	return fmt.Sprintf("listener %T failed on %s event: %v", e.Listener, e.Event.Type(), e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ErrorHandler decides what happens to a listener failure when it is
// installed on a multicaster. Without a handler failures propagate.
type ErrorHandler interface {
	HandleError(err *DispatchError)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(err *DispatchError)

// HandleError calls f(err).
func (f ErrorHandlerFunc) HandleError(err *DispatchError) { f(err) }

// LoggingErrorHandler logs listener failures at warn level so the dispatch
// can continue with the remaining listeners.
func LoggingErrorHandler(logger log.Logger) ErrorHandler {
	logger = log.OrNoop(logger)
	return ErrorHandlerFunc(func(err *DispatchError) {
		logger.Warn("error calling lifecycle listener",
			log.String("listener", fmt.Sprintf("%T", err.Listener)),
			log.Stringer("event", err.Event.Type()),
			log.Err(err),
		)
	})
}
