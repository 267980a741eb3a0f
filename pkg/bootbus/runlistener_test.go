package bootbus_test

import (
	"time"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/lifecycle"
)

// failingRunListener fails the started phase.
type failingRunListener struct {
	lifecycle.BaseRunListener
	err          error
	failedCalled bool
}

func (f *failingRunListener) Started(event.Container, time.Duration) error { return f.err }

func (f *failingRunListener) Failed(event.Container, error) error {
	f.failedCalled = true
	return nil
}
