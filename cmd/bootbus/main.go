package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/bootbus/internal/cliconfig"
	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/event"
	logAdapter "github.com/bft-labs/bootbus/pkg/log"
	"github.com/bft-labs/bootbus/plugins/availability"
	"github.com/bft-labs/bootbus/plugins/configfile"
	"github.com/bft-labs/bootbus/plugins/configwatcher"
	"github.com/bft-labs/bootbus/plugins/metrics"
	"github.com/bft-labs/bootbus/plugins/pidfile"
	"github.com/bft-labs/bootbus/plugins/resourcegating"
)

const helpDescription = `
Run an application through its full startup lifecycle and watch every event
it publishes: starting, environment-prepared, context-initialized,
context-loaded, started and ready, or failed when something goes wrong.

Properties come from a TOML/YAML file, BOOTBUS_APP_* environment variables
and --properties. Listeners named under the "listeners" property are
attached before the container takes over delivery.
`

var exampleUsage = strings.TrimSpace(`
  bootbus --name orders --flavor server --once
  bootbus --properties-file app.toml --watch --metrics-addr :9090
  bootbus --config $HOME/.bootbus/config.toml --pid-file /run/orders.pid
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:          "bootbus",
		Short:        "Run an application through its lifecycle event bus",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// BOOTBUS_* override file config but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			level, _ := zerolog.ParseLevel(cfg.LogLevel)
			log = log.Level(level)
			log.Info().Interface("config", cfg).Msg("configuration")

			return run(cmd, cfg, args, logAdapter.NewZerologAdapterWithLogger(log))
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.bootbus/config.toml)")
	root.Flags().StringVar(&cfg.Name, "name", cfg.Name, "application name")
	root.Flags().StringVar(&cfg.Flavor, "flavor", cfg.Flavor, "application flavor (none, server, reactive)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.Flags().StringToStringVar(&cfg.Properties, "properties", cfg.Properties, "environment properties as key=value pairs")
	root.Flags().StringVar(&cfg.PropertiesFile, "properties-file", cfg.PropertiesFile, "TOML or YAML property file loaded on environment-prepared")
	root.Flags().StringSliceVar(&cfg.Profiles, "profiles", cfg.Profiles, "active profiles")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload the property file on change once ready")

	root.Flags().StringVar(&cfg.PIDFile, "pid-file", cfg.PIDFile, "write the process id to this file")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics, /live and /ready on this address")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "time allowed for shutdown")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "exit once the application is ready")

	root.Flags().StringVar(&cfg.FailAt, "fail-at", cfg.FailAt, "fail the run at this phase (debug)")
	if err := root.Flags().MarkHidden("fail-at"); err != nil {
		log.Info().Err(err).Msg("failed to hide fail-at flag")
	}

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("bootbus")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg cliconfig.Config, args []string, logger logAdapter.Logger) error {
	tracker := availability.New()
	events := &timeline{begin: time.Now()}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []bootbus.Option{
		bootbus.WithLogger(logger),
		bootbus.WithFlavor(cfg.FlavorValue()),
		bootbus.WithProperties(cfg.Properties),
		bootbus.WithProfiles(cfg.Profiles...),
		bootbus.WithListeners(eventLog(logger), events),
		bootbus.WithEventHandler(bootbus.EventHandlerFunc(func(e bootbus.StateChangeEvent) {
			logger.Debug("state change",
				logAdapter.String("from", string(e.Previous)),
				logAdapter.String("to", string(e.Current)),
			)
		})),
		availability.WithTracker(tracker),
		metrics.WithMetrics(registry),
		resourcegating.WithDefaultResourceGating(),
	}

	if phase, ok := cfg.FailAtPhase(); ok {
		opts = append(opts, bootbus.WithListeners(failAt(phase)))
	}
	if cfg.PropertiesFile != "" {
		listeners := configfile.NewRegistry()
		listeners.Register("event-log", func() event.Listener { return eventLog(logger) })
		opts = append(opts, configfile.WithConfigFile(configfile.Config{
			Path:     cfg.PropertiesFile,
			Registry: listeners,
		}))
	}
	if cfg.Watch {
		opts = append(opts, configwatcher.WithDefaultConfigWatcher(cfg.PropertiesFile))
	}
	if cfg.PIDFile != "" {
		opts = append(opts, pidfile.WithPIDFile(pidfile.DefaultConfig(cfg.PIDFile)))
	}

	app, err := bootbus.New(cfg.Name, opts...)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	if cfg.MetricsAddr != "" {
		srv := serveProbes(cfg.MetricsAddr, registry, tracker, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = app.Run(ctx, args...)
	events.render(cmd.OutOrStdout())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s failed: %v\n", cfg.Name, err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s liveness=%s readiness=%s\n",
		cfg.Name, tracker.Liveness(), tracker.Readiness())

	if !cfg.Once {
		<-ctx.Done()
		logger.Info("received signal, stopping...")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// eventLog logs every event it sees at debug level.
func eventLog(logger logAdapter.Logger) event.Listener {
	return event.ListenerFunc(event.AllTypes, func(e *event.Event) error {
		logger.Debug("event", logAdapter.String("type", e.Type().String()), logAdapter.String("id", e.ID()))
		return nil
	})
}

func failAt(phase event.Type) event.Listener {
	return event.ListenerFunc(event.Types(phase), func(e *event.Event) error {
		return fmt.Errorf("forced failure at %s", phase)
	})
}

// timeline records when each event was seen, relative to begin.
type timeline struct {
	begin time.Time

	mu   sync.Mutex
	rows [][2]string
}

func (t *timeline) Supports(event.Type) bool { return true }

func (t *timeline) OnEvent(e *event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := e.Type().String()
	if e.Type() == event.TypeAvailabilityChange {
		name += " " + string(e.Availability())
	}
	t.rows = append(t.rows, [2]string{name, e.Timestamp().Sub(t.begin).Round(time.Microsecond).String()})
	return nil
}

func (t *timeline) render(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := tablewriter.NewWriter(w)
	table.Header("Event", "At")
	for _, row := range t.rows {
		table.Append(row[0], row[1])
	}
	table.Render()
}

func serveProbes(addr string, reg *prometheus.Registry, tracker *availability.Plugin, logger logAdapter.Logger) *http.Server {
	health := tracker.HealthHandler()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Method(http.MethodGet, "/live", health)
	r.Method(http.MethodGet, "/ready", health)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", logAdapter.Err(err))
		}
	}()
	logger.Info("serving metrics and probes", logAdapter.String("addr", addr))
	return srv
}
