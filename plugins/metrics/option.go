package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/bootbus/pkg/bootbus"
)

// WithMetrics returns a bootbus Option that exports lifecycle metrics to reg.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	app, err := bootbus.New("orders", metrics.WithMetrics(registry))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func WithMetrics(reg prometheus.Registerer) bootbus.Option {
	return bootbus.WithPlugin(New(reg))
}
