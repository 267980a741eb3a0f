package factory

import (
	"fmt"
	"strings"

	"github.com/bft-labs/bootbus/internal/domain"
)

// Flavor selects which kind of container an application runs in.
type Flavor int

const (
	// FlavorNone runs without any server.
	FlavorNone Flavor = iota
	// FlavorServer runs a blocking request/response server.
	FlavorServer
	// FlavorReactive runs a non-blocking server.
	FlavorReactive
)

// String returns the flavor name.
func (f Flavor) String() string {
	switch f {
	case FlavorNone:
		return "none"
	case FlavorServer:
		return "server"
	case FlavorReactive:
		return "reactive"
	default:
		return "unknown"
	}
}

// ParseFlavor parses a flavor name, case-insensitively.
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlavorNone, nil
	case "server":
		return FlavorServer, nil
	case "reactive":
		return FlavorReactive, nil
	default:
		return FlavorNone, fmt.Errorf("%w: unknown flavor %q", domain.ErrInvalidConfig, s)
	}
}
