package multicast

import (
	"fmt"
	"sync"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// Multicaster holds an ordered set of listeners and dispatches events to them.
type Multicaster struct {
	mu           sync.RWMutex
	listeners    []event.Listener
	errorHandler ErrorHandler
	logger       log.Logger
}

// New creates an empty multicaster that propagates listener errors.
func New(logger log.Logger) *Multicaster {
	return &Multicaster{logger: log.OrNoop(logger)}
}

// AddListener appends l unless it is already registered.
// It returns true when l was added.
func (m *Multicaster) AddListener(l event.Listener) bool {
	if l == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.ContainsListener(m.listeners, l) {
		return false
	}
	m.listeners = append(m.listeners, l)
	return true
}

// RemoveListener removes l. It returns true when l was registered.
func (m *Multicaster) RemoveListener(l event.Listener) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.listeners {
		if event.SameListener(existing, l) {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Listeners returns a snapshot of the registered listeners in delivery order.
func (m *Multicaster) Listeners() []event.Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]event.Listener, len(m.listeners))
	copy(out, m.listeners)
	return out
}

// SetErrorHandler installs h for future dispatches. A nil handler restores
// the default of returning the first listener error.
func (m *Multicaster) SetErrorHandler(h ErrorHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorHandler = h
}

// ErrorHandler returns the installed error handler, nil when errors propagate.
func (m *Multicaster) ErrorHandler() ErrorHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorHandler
}

// Multicast delivers e to every registered listener that supports its type.
//
// Delivery iterates the listeners registered when Multicast was called;
// listeners added during the dispatch do not receive e. With no error
// handler the first failure stops delivery and is returned as a
// *DispatchError. With a handler every failure is handed to it and
// Multicast returns nil.
func (m *Multicaster) Multicast(e *event.Event) error {
	m.mu.RLock()
	listeners := make([]event.Listener, len(m.listeners))
	copy(listeners, m.listeners)
	handler := m.errorHandler
	m.mu.RUnlock()

	m.logger.Debug("multicasting event",
		log.Stringer("event", e.Type()),
		log.Int("listeners", len(listeners)),
	)

	for _, l := range listeners {
		if !l.Supports(e.Type()) {
			continue
		}
		if err := invoke(l, e); err != nil {
			if handler == nil {
				return err
			}
			handler.HandleError(err)
		}
	}
	return nil
}

// invoke calls l and converts a failure or panic into a DispatchError.
func invoke(l event.Listener, e *event.Event) (derr *DispatchError) {
	defer func() {
		if r := recover(); r != nil {
			derr = &DispatchError{Listener: l, Event: e, Panic: r}
			if err, ok := r.(error); ok {
				derr.Err = err
			} else {
				derr.Err = fmt.Errorf("panic: %v", r)
			}
		}
	}()
	if err := l.OnEvent(e); err != nil {
		return &DispatchError{Listener: l, Event: e, Err: err}
	}
	return nil
}
