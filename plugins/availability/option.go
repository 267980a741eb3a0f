package availability

import "github.com/bft-labs/bootbus/pkg/bootbus"

// WithTracker returns a bootbus Option that registers p.
//
// Usage:
//
//	tracker := availability.New()
//	app, err := bootbus.New("orders", availability.WithTracker(tracker))
//	http.Handle("/ready", tracker.HealthHandler())
func WithTracker(p *Plugin) bootbus.Option {
	return bootbus.WithPlugin(p)
}
