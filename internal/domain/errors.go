package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the bootbus domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrContainerFactory is matched by every error raised while a factory
	// candidate produces a container or environment.
	ErrContainerFactory = errors.New("bootbus: container factory failed")

	// ErrContainerClosed is returned when publishing to a closed container.
	ErrContainerClosed = errors.New("bootbus: container closed")

	// ErrAlreadyRefreshed is returned when a container is refreshed twice.
	ErrAlreadyRefreshed = errors.New("bootbus: container already refreshed")

	// ErrInvalidTransition is returned when a lifecycle phase fires out of order.
	ErrInvalidTransition = errors.New("bootbus: invalid phase transition")

	// ErrAlreadyRan is returned when an application is run a second time.
	ErrAlreadyRan = errors.New("bootbus: application already ran")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("bootbus: invalid configuration")
)

// PhaseError reports the lifecycle phase during which a run aborted.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("bootbus: run failed during %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
