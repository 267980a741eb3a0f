package cliconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/bootbus/internal/domain"
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/factory"
)

// DefaultName is the application name used when none is configured.
const DefaultName = "bootbus"

// Config holds CLI configuration for bootbus.
type Config struct {
	Name     string
	Flavor   string
	LogLevel string

	Properties     map[string]string
	PropertiesFile string
	Profiles       []string

	Watch       bool
	PIDFile     string
	MetricsAddr string

	ShutdownTimeout time.Duration
	Once            bool

	// FailAt names a lifecycle phase at which the run is made to fail.
	FailAt string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Name:            DefaultName,
		Flavor:          "none",
		LogLevel:        "info",
		Properties:      map[string]string{},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = DefaultName
	}
	if _, err := factory.ParseFlavor(c.Flavor); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", domain.ErrInvalidConfig, c.LogLevel)
	}
	if c.Watch && c.PropertiesFile == "" {
		return fmt.Errorf("%w: watch requires a properties file", domain.ErrInvalidConfig)
	}
	if c.FailAt != "" {
		t, ok := event.ParseType(c.FailAt)
		if !ok || !t.IsPhase() || t == event.TypeFailed {
			return fmt.Errorf("%w: fail-at %q is not a lifecycle phase", domain.ErrInvalidConfig, c.FailAt)
		}
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// FlavorValue returns the parsed flavor. Call after Validate.
func (c *Config) FlavorValue() factory.Flavor {
	f, _ := factory.ParseFlavor(c.Flavor)
	return f
}

// FailAtPhase returns the phase named by FailAt, if any.
func (c *Config) FailAtPhase() (event.Type, bool) {
	if c.FailAt == "" {
		return 0, false
	}
	return event.ParseType(c.FailAt)
}

// Logger returns the console logger used by the CLI.
func Logger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setStringMap merges value into dst. Keys given on the command line win.
func (s *configSetter) setStringMap(flag string, value map[string]string, dst *map[string]string) {
	if len(value) == 0 {
		return
	}
	if *dst == nil {
		*dst = make(map[string]string, len(value))
	}
	for k, v := range value {
		if _, ok := (*dst)[k]; ok && s.changed[flag] {
			continue
		}
		(*dst)[k] = v
	}
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// splitList splits a comma separated list, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseProperties reads "k=v,k2=v2" into a map.
func parseProperties(value string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range splitList(value) {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: property %q is not key=value", domain.ErrInvalidConfig, pair)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
