package event

import "strings"

// Type tags an event with the phase or container notification it represents.
type Type int

const (
	TypeStarting Type = iota
	TypeEnvironmentPrepared
	TypeContextInitialized
	TypeContextLoaded
	TypeStarted
	TypeReady
	TypeFailed
	TypeAvailabilityChange
	TypeContainerRefreshed
	TypeContainerClosed
	TypeEnvironmentChanged

	typeCount
)

var typeNames = [...]string{
	TypeStarting:            "starting",
	TypeEnvironmentPrepared: "environment-prepared",
	TypeContextInitialized:  "context-initialized",
	TypeContextLoaded:       "context-loaded",
	TypeStarted:             "started",
	TypeReady:               "ready",
	TypeFailed:              "failed",
	TypeAvailabilityChange:  "availability-change",
	TypeContainerRefreshed:  "container-refreshed",
	TypeContainerClosed:     "container-closed",
	TypeEnvironmentChanged:  "environment-changed",
}

// String returns the tag of the type.
func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return "unknown"
	}
	return typeNames[t]
}

// IsPhase reports whether t is one of the lifecycle phases, failed included.
func (t Type) IsPhase() bool {
	return t >= TypeStarting && t <= TypeFailed
}

// Next returns the phase that follows t in the canonical order.
// It returns false for ready, failed and non-phase types.
func (t Type) Next() (Type, bool) {
	if t < TypeStarting || t >= TypeReady {
		return 0, false
	}
	return t + 1, true
}

// Phases returns the successful lifecycle phases in firing order.
func Phases() []Type {
	return []Type{
		TypeStarting,
		TypeEnvironmentPrepared,
		TypeContextInitialized,
		TypeContextLoaded,
		TypeStarted,
		TypeReady,
	}
}

// ParseType returns the type with the given tag.
func ParseType(s string) (Type, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range typeNames {
		if name == s {
			return Type(i), true
		}
	}
	return 0, false
}

// TypeSet is a set of event types.
type TypeSet uint32

// AllTypes contains every event type.
const AllTypes = TypeSet(1<<typeCount - 1)

// PhaseTypes contains the lifecycle phases, failed included.
const PhaseTypes = TypeSet(1<<(TypeFailed+1) - 1)

// Types builds a set from the given types.
func Types(types ...Type) TypeSet {
	var s TypeSet
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

// With returns a copy of s that also contains t.
func (s TypeSet) With(t Type) TypeSet {
	if t < 0 || t >= typeCount {
		return s
	}
	return s | 1<<uint(t)
}

// Has reports whether t is in s.
func (s TypeSet) Has(t Type) bool {
	if t < 0 || t >= typeCount {
		return false
	}
	return s&(1<<uint(t)) != 0
}
