package configwatcher

import "github.com/bft-labs/bootbus/pkg/bootbus"

// WithConfigWatcher returns a bootbus Option that enables config file watching.
// When enabled, the plugin monitors the file once the application is ready
// and publishes environment-changed events for modified properties.
//
// Usage:
//
//	app, err := bootbus.New("orders",
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/etc/orders/application.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) bootbus.Option {
	plugin := New(cfg)
	return bootbus.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns a bootbus Option that watches path with
// default settings (debounce 100ms).
//
// Usage:
//
//	app, err := bootbus.New("orders", configwatcher.WithDefaultConfigWatcher(path))
func WithDefaultConfigWatcher(path string) bootbus.Option {
	return WithConfigWatcher(DefaultConfig(path))
}
