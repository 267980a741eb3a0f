package resourcegating

import "github.com/bft-labs/bootbus/pkg/bootbus"

// WithResourceGating returns a bootbus Option that enables resource gating.
//
// Usage:
//
//	app, err := bootbus.New("orders",
//	    resourcegating.WithResourceGating(resourcegating.Config{
//	        Threshold: 0.9,
//	        Interval:  time.Second,
//	    }),
//	)
func WithResourceGating(cfg Config) bootbus.Option {
	plugin := New(cfg)
	return bootbus.WithPlugin(plugin)
}

// WithDefaultResourceGating returns a bootbus Option that enables resource
// gating with default settings (CPU threshold 0.85, sampled every 5s).
//
// Usage:
//
//	app, err := bootbus.New("orders", resourcegating.WithDefaultResourceGating())
func WithDefaultResourceGating() bootbus.Option {
	return WithResourceGating(DefaultConfig())
}
