package pidfile

import "github.com/bft-labs/bootbus/pkg/bootbus"

// WithPIDFile returns a bootbus Option that writes the process id to a file.
//
// Usage:
//
//	app, err := bootbus.New("orders",
//	    pidfile.WithPIDFile(pidfile.Config{
//	        Path:    "/run/orders.pid",
//	        Trigger: event.TypeReady,
//	    }),
//	)
func WithPIDFile(cfg Config) bootbus.Option {
	return bootbus.WithPlugin(New(cfg))
}
