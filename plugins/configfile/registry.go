package configfile

import (
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/bft-labs/bootbus/pkg/event"
)

// Registry maps listener names to constructors. It is safe for concurrent
// use.
type Registry struct {
	factories cmap.ConcurrentMap[string, func() event.Listener]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: cmap.New[func() event.Listener]()}
}

// Register binds name to fn, replacing any previous binding.
func (r *Registry) Register(name string, fn func() event.Listener) {
	r.factories.Set(name, fn)
}

// Create builds the listener registered under name.
func (r *Registry) Create(name string) (event.Listener, bool) {
	fn, ok := r.factories.Get(name)
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := r.factories.Keys()
	sort.Strings(names)
	return names
}
