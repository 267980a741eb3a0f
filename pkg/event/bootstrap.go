package event

import "sync"

// BootstrapContext is a registry for objects that are expensive to build and
// needed before the container exists. It is closed once the container has
// been prepared.
type BootstrapContext struct {
	mu      sync.Mutex
	values  map[string]interface{}
	onClose []func(Container)
	closed  bool
}

// NewBootstrapContext returns an empty, open bootstrap context.
func NewBootstrapContext() *BootstrapContext {
	return &BootstrapContext{values: make(map[string]interface{})}
}

// Register stores value under name unless a value is already registered.
// It returns false when name was taken.
func (b *BootstrapContext) Register(name string, value interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.values[name]; ok {
		return false
	}
	b.values[name] = value
	return true
}

// Get returns the value registered under name.
func (b *BootstrapContext) Get(name string) (interface{}, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[name]
	return v, ok
}

// OnClose registers fn to run when the context is closed.
func (b *BootstrapContext) OnClose(fn func(Container)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onClose = append(b.onClose, fn)
}

// Close runs the close callbacks in registration order, once.
func (b *BootstrapContext) Close(c Container) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	callbacks := b.onClose
	b.onClose = nil
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn(c)
	}
}

// Closed reports whether Close has been called.
func (b *BootstrapContext) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
