package lifecycle

import (
	"time"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/publisher"
)

// RunListener observes one run of an application, phase by phase.
//
// The driver calls each method at most once, in declaration order, stopping
// at the first error. Failed may follow any prefix of the phases.
type RunListener interface {
	// Starting is called as soon as the run begins.
	Starting(bc *event.BootstrapContext) error

	// EnvironmentPrepared is called once the environment is available.
	EnvironmentPrepared(bc *event.BootstrapContext, env event.Environment) error

	// ContextPrepared is called once the container has been created and
	// initialized, before it is loaded.
	ContextPrepared(c event.Container) error

	// ContextLoaded is called once the container is loaded but not yet
	// refreshed.
	ContextLoaded(c event.Container) error

	// Started is called after the container refreshed, before runners.
	Started(c event.Container, elapsed time.Duration) error

	// Ready is called after every runner completed.
	Ready(c event.Container, elapsed time.Duration) error

	// Failed is called when the run failed. c is nil if the failure
	// happened before a container existed.
	Failed(c event.Container, cause error) error
}

var _ RunListener = (*publisher.Publisher)(nil)

// BaseRunListener implements every RunListener method as a no-op.
// Embed it to observe a subset of phases.
type BaseRunListener struct{}

func (BaseRunListener) Starting(*event.BootstrapContext) error                               { return nil }
func (BaseRunListener) EnvironmentPrepared(*event.BootstrapContext, event.Environment) error { return nil }
func (BaseRunListener) ContextPrepared(event.Container) error                                { return nil }
func (BaseRunListener) ContextLoaded(event.Container) error                                  { return nil }
func (BaseRunListener) Started(event.Container, time.Duration) error                         { return nil }
func (BaseRunListener) Ready(event.Container, time.Duration) error                           { return nil }
func (BaseRunListener) Failed(event.Container, error) error                                  { return nil }
