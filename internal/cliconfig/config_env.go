package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "BOOTBUS_"

// ApplyEnvConfig applies BOOTBUS_* environment variables to cfg. They
// override file values but not explicitly set flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("name", os.Getenv(EnvPrefix+"NAME"), &cfg.Name)
	s.setString("flavor", os.Getenv(EnvPrefix+"FLAVOR"), &cfg.Flavor)
	s.setString("log-level", os.Getenv(EnvPrefix+"LOG_LEVEL"), &cfg.LogLevel)
	s.setString("properties-file", os.Getenv(EnvPrefix+"PROPERTIES_FILE"), &cfg.PropertiesFile)
	s.setString("pid-file", os.Getenv(EnvPrefix+"PID_FILE"), &cfg.PIDFile)
	s.setString("metrics-addr", os.Getenv(EnvPrefix+"METRICS_ADDR"), &cfg.MetricsAddr)

	s.setStrings("profiles", splitList(os.Getenv(EnvPrefix+"PROFILES")), &cfg.Profiles)

	if raw := os.Getenv(EnvPrefix + "PROPERTIES"); raw != "" {
		props, err := parseProperties(raw)
		if err != nil {
			return err
		}
		s.setStringMap("properties", props, &cfg.Properties)
	}

	if err := s.setDuration("shutdown-timeout", os.Getenv(EnvPrefix+"SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv(EnvPrefix+"WATCH"), &cfg.Watch)
	s.setBoolFromString("once", os.Getenv(EnvPrefix+"ONCE"), &cfg.Once)

	return nil
}
