// Package multicast fans lifecycle events out to an ordered set of listeners.
//
// A [Multicaster] delivers synchronously, in registration order, to every
// listener whose Supports accepts the event's type. By default the first
// failing listener stops the dispatch and its error is returned; installing
// [LoggingErrorHandler] makes the multicaster log the failure and carry on.
//
//	m := multicast.New(logger)
//	m.AddListener(l)
//	if err := m.Multicast(e); err != nil {
//	    var de *multicast.DispatchError
//	    errors.As(err, &de)
//	}
package multicast
