package factory

import (
	"github.com/bft-labs/bootbus/pkg/container"
	"github.com/bft-labs/bootbus/pkg/env"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// EnvPrefix is the process environment prefix imported by the built-in
// candidates.
const EnvPrefix = "BOOTBUS_APP_"

// flavorCandidate answers for exactly one flavor.
type flavorCandidate struct {
	flavor  Flavor
	name    string
	envType string
	logger  log.Logger
}

func (c flavorCandidate) CreateContainer(f Flavor) (container.Configurable, error) {
	if f != c.flavor {
		return nil, nil
	}
	return container.NewGeneric(c.name, container.WithLogger(c.logger)), nil
}

func (c flavorCandidate) CreateEnvironment(f Flavor) (event.Environment, error) {
	if f != c.flavor {
		return nil, nil
	}
	return env.FromProcess(c.envType, EnvPrefix), nil
}

func (c flavorCandidate) EnvironmentType(f Flavor) (string, error) {
	if f != c.flavor {
		return "", nil
	}
	return c.envType, nil
}

// ServerCandidate builds containers and environments for FlavorServer.
func ServerCandidate(logger log.Logger) Candidate {
	return flavorCandidate{flavor: FlavorServer, name: "server", envType: "server-environment", logger: log.OrNoop(logger)}
}

// ReactiveCandidate builds containers and environments for FlavorReactive.
func ReactiveCandidate(logger log.Logger) Candidate {
	return flavorCandidate{flavor: FlavorReactive, name: "reactive", envType: "reactive-environment", logger: log.OrNoop(logger)}
}

// Defaults returns the built-in candidates in lookup order.
func Defaults(logger log.Logger) []Candidate {
	return []Candidate{ServerCandidate(logger), ReactiveCandidate(logger)}
}
