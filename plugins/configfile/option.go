package configfile

import "github.com/bft-labs/bootbus/pkg/bootbus"

// WithConfigFile returns a bootbus Option that loads properties from a file.
//
// Usage:
//
//	app, err := bootbus.New("orders",
//	    configfile.WithConfigFile(configfile.Config{
//	        Path:     "/etc/orders/application.yaml",
//	        Registry: registry,
//	    }),
//	)
func WithConfigFile(cfg Config) bootbus.Option {
	return bootbus.WithPlugin(New(cfg))
}
