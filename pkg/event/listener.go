package event

import "reflect"

// Listener receives the events whose types it supports.
type Listener interface {
	// Supports reports whether the listener wants events of type t.
	Supports(t Type) bool

	// OnEvent handles the event. A returned error aborts the current dispatch
	// unless the dispatcher is configured to log and continue.
	OnEvent(e *Event) error
}

// ContainerAware is implemented by listeners that want a reference to the
// container once it exists.
type ContainerAware interface {
	SetContainer(c Container)
}

// FuncListener adapts a function to the Listener interface.
type FuncListener struct {
	types TypeSet
	fn    func(e *Event) error
}

// ListenerFunc returns a listener that calls fn for events in types.
// Each call returns a distinct listener.
func ListenerFunc(types TypeSet, fn func(e *Event) error) *FuncListener {
	return &FuncListener{types: types, fn: fn}
}

// Supports reports whether t is in the listener's type set.
func (l *FuncListener) Supports(t Type) bool { return l.types.Has(t) }

// OnEvent calls the wrapped function.
func (l *FuncListener) OnEvent(e *Event) error { return l.fn(e) }

// SameListener reports whether a and b are the same listener. Listeners whose
// dynamic type is not comparable are never considered the same, nor are
// struct values whose comparison reaches a function, map or slice.
func SameListener(a, b Listener) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// ContainsListener reports whether l is in ls.
func ContainsListener(ls []Listener, l Listener) bool {
	for _, existing := range ls {
		if SameListener(existing, l) {
			return true
		}
	}
	return false
}
