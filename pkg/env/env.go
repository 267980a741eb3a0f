// Package env provides the standard Environment implementation: a property
// map seeded from the process environment, plus active profiles.
package env

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bft-labs/bootbus/pkg/event"
)

// ProfilesKey is the property listing active profiles, comma separated.
const ProfilesKey = "profiles.active"

// Standard is a concurrency-safe property map.
type Standard struct {
	mu         sync.RWMutex
	kind       string
	properties map[string]string
	profiles   []string
}

// NewStandard returns an empty environment of the given kind.
func NewStandard(kind string, profiles ...string) *Standard {
	return &Standard{
		kind:       kind,
		properties: make(map[string]string),
		profiles:   append([]string(nil), profiles...),
	}
}

// FromProcess returns an environment holding every process variable that
// starts with prefix. "APP_SERVER_PORT" with prefix "APP_" becomes
// "server.port".
func FromProcess(kind, prefix string) *Standard {
	s := NewStandard(kind)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(k, prefix), "_", "."))
		if key == "" {
			continue
		}
		s.Set(key, v)
	}
	return s
}

// Kind names the environment flavor, e.g. "server".
func (s *Standard) Kind() string { return s.kind }

// Get returns the value of key.
func (s *Standard) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.properties[key]
	return v, ok
}

// GetOr returns the value of key, or def when unset.
func (s *Standard) GetOr(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Set assigns key. Setting ProfilesKey also replaces the active profiles.
func (s *Standard) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[key] = value
	if key == ProfilesKey {
		s.profiles = splitList(value)
	}
}

// SetDefault assigns key only when it is not set yet.
// It returns true when the value was stored.
func (s *Standard) SetDefault(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[key]; ok {
		return false
	}
	s.properties[key] = value
	if key == ProfilesKey {
		s.profiles = splitList(value)
	}
	return true
}

// Keys returns the property keys in sorted order.
func (s *Standard) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.properties))
	for k := range s.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Profiles returns the active profiles.
func (s *Standard) Profiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.profiles...)
}

// Snapshot returns a copy of all properties.
func (s *Standard) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.properties))
	for k, v := range s.properties {
		out[k] = v
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ event.Environment = (*Standard)(nil)
