package bootbus

import "context"

// Runner is called once the container has started. Runners run in
// registration order; the first error fails the run.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, args []string) error

func (f RunnerFunc) Run(ctx context.Context, args []string) error { return f(ctx, args) }
