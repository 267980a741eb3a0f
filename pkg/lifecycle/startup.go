package lifecycle

import (
	"os"
	"runtime"
	"time"

	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/log"
)

// StartupInfoLogger logs a line when the run starts, once the container
// has started, and when the run fails.
type StartupInfoLogger struct {
	BaseRunListener

	name   string
	args   []string
	logger log.Logger
	now    func() time.Time
	begin  time.Time
}

// NewStartupInfoLogger creates a startup logger for the named application.
func NewStartupInfoLogger(name string, args []string, logger log.Logger) *StartupInfoLogger {
	return &StartupInfoLogger{
		name:   name,
		args:   append([]string(nil), args...),
		logger: log.OrNoop(logger),
		now:    time.Now,
	}
}

func (s *StartupInfoLogger) Starting(*event.BootstrapContext) error {
	s.begin = s.now()
	host, _ := os.Hostname()
	s.logger.Info("starting application",
		log.String("application", s.name),
		log.Int("pid", os.Getpid()),
		log.String("host", host),
		log.String("go_version", runtime.Version()),
		log.Strings("args", s.args),
	)
	return nil
}

func (s *StartupInfoLogger) EnvironmentPrepared(_ *event.BootstrapContext, env event.Environment) error {
	if env == nil {
		return nil
	}
	profiles := env.Profiles()
	if len(profiles) == 0 {
		s.logger.Info("no active profile set, falling back to defaults",
			log.String("application", s.name),
		)
		return nil
	}
	s.logger.Info("active profiles",
		log.String("application", s.name),
		log.Strings("profiles", profiles),
	)
	return nil
}

func (s *StartupInfoLogger) Started(_ event.Container, elapsed time.Duration) error {
	fields := []log.Field{
		log.String("application", s.name),
		log.Duration("elapsed", elapsed),
	}
	if !s.begin.IsZero() {
		fields = append(fields, log.Duration("running_for", s.now().Sub(s.begin)))
	}
	s.logger.Info("started application", fields...)
	return nil
}

func (s *StartupInfoLogger) Failed(_ event.Container, cause error) error {
	s.logger.Error("application run failed",
		log.String("application", s.name),
		log.Err(cause),
	)
	return nil
}
