// Package factory selects the container and environment for an application
// flavor from an ordered list of candidates.
//
// Candidates are asked in registration order; the first non-nil answer wins.
// When every candidate declines, CreateContainer falls back to a generic
// container. A candidate that fails is fatal: its error is wrapped in a
// [FactoryError] rather than skipped.
package factory

import (
	"fmt"

	"github.com/bft-labs/bootbus/internal/domain"
	"github.com/bft-labs/bootbus/pkg/container"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// DefaultContainerName names the container used when no candidate applies.
const DefaultContainerName = "application"

// Candidate produces containers and environments for the flavors it
// supports. Returning a nil value with a nil error declines the flavor.
type Candidate interface {
	CreateContainer(f Flavor) (container.Configurable, error)
	CreateEnvironment(f Flavor) (event.Environment, error)

	// EnvironmentType names the environment CreateEnvironment would build,
	// or returns "" to decline.
	EnvironmentType(f Flavor) (string, error)
}

// FactoryError reports a candidate failure.
type FactoryError struct {
	Op     string
	Flavor Flavor
	Err    error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("unable to create a default container instance, you may need a custom container factory (%s, flavor %s): %v",
		e.Op, e.Flavor, e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }

// Is matches domain.ErrContainerFactory.
func (e *FactoryError) Is(target error) bool { return target == domain.ErrContainerFactory }

// Factory looks containers and environments up among candidates.
type Factory struct {
	candidates []Candidate
	logger     log.Logger
}

// New creates a factory over candidates, asked in the given order.
func New(logger log.Logger, candidates ...Candidate) *Factory {
	return &Factory{
		candidates: append([]Candidate(nil), candidates...),
		logger:     log.OrNoop(logger),
	}
}

// CreateContainer returns the first container a candidate produces for f,
// or a generic container when every candidate declines.
func (f *Factory) CreateContainer(fl Flavor) (container.Configurable, error) {
	for _, c := range f.candidates {
		created, err := c.CreateContainer(fl)
		if err != nil {
			return nil, &FactoryError{Op: "create container", Flavor: fl, Err: err}
		}
		if created != nil {
			return created, nil
		}
	}
	f.logger.Debug("no candidate container for flavor, using default",
		log.Stringer("flavor", fl),
	)
	return container.NewGeneric(DefaultContainerName, container.WithLogger(f.logger)), nil
}

// CreateEnvironment returns the first environment a candidate produces for
// f, or nil when every candidate declines.
func (f *Factory) CreateEnvironment(fl Flavor) (event.Environment, error) {
	for _, c := range f.candidates {
		env, err := c.CreateEnvironment(fl)
		if err != nil {
			return nil, &FactoryError{Op: "create environment", Flavor: fl, Err: err}
		}
		if env != nil {
			return env, nil
		}
	}
	return nil, nil
}

// EnvironmentType returns the first environment type a candidate names for
// f, or "" when every candidate declines.
func (f *Factory) EnvironmentType(fl Flavor) (string, error) {
	for _, c := range f.candidates {
		typ, err := c.EnvironmentType(fl)
		if err != nil {
			return "", &FactoryError{Op: "environment type", Flavor: fl, Err: err}
		}
		if typ != "" {
			return typ, nil
		}
	}
	return "", nil
}
