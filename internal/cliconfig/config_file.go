package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/bootbus/internal/propfile"
)

// FileConfig mirrors Config but uses strings for durations. The same
// keys work in TOML and YAML.
type FileConfig struct {
	Name            string            `toml:"name" yaml:"name"`
	Flavor          string            `toml:"flavor" yaml:"flavor"`
	LogLevel        string            `toml:"log_level" yaml:"log_level"`
	Properties      map[string]string `toml:"properties" yaml:"properties"`
	PropertiesFile  string            `toml:"properties_file" yaml:"properties_file"`
	Profiles        []string          `toml:"profiles" yaml:"profiles"`
	Watch           *bool             `toml:"watch" yaml:"watch"`
	PIDFile         string            `toml:"pid_file" yaml:"pid_file"`
	MetricsAddr     string            `toml:"metrics_addr" yaml:"metrics_addr"`
	ShutdownTimeout string            `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	Once            *bool             `toml:"once" yaml:"once"`
}

// LoadFileConfig reads a TOML or YAML config file, chosen by extension.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	format, err := propfile.FormatOf(path)
	if err != nil {
		return fc, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch format {
	case propfile.FormatYAML:
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.bootbus/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".bootbus", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("name", fc.Name, &cfg.Name)
	s.setString("flavor", fc.Flavor, &cfg.Flavor)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("properties-file", fc.PropertiesFile, &cfg.PropertiesFile)
	s.setString("pid-file", fc.PIDFile, &cfg.PIDFile)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	s.setStrings("profiles", fc.Profiles, &cfg.Profiles)
	s.setStringMap("properties", fc.Properties, &cfg.Properties)

	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
