package pidfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bft-labs/bootbus/internal/domain"
	"github.com/bft-labs/bootbus/pkg/bootbus"
	"github.com/bft-labs/bootbus/pkg/container"
	"github.com/bft-labs/bootbus/pkg/event"
)

func readPID(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	return strings.TrimSpace(string(b))
}

func TestNew_Trigger(t *testing.T) {
	tests := []struct {
		name    string
		trigger event.Type
		want    event.Type
	}{
		{"zero value", 0, event.TypeContextLoaded},
		{"ready", event.TypeReady, event.TypeReady},
		{"environment prepared", event.TypeEnvironmentPrepared, event.TypeEnvironmentPrepared},
		{"failed", event.TypeFailed, event.TypeContextLoaded},
		{"non phase", event.TypeContainerClosed, event.TypeContextLoaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{Path: "x.pid", Trigger: tt.trigger})
			if p.trigger != tt.want {
				t.Errorf("trigger = %s, want %s", p.trigger, tt.want)
			}
		})
	}
}

func TestPlugin_WritesOnTriggerAndRemovesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "app.pid")

	plugin := New(DefaultConfig(path))
	plugin.pid = func() int { return 4242 }

	var existedAt []event.Type
	observer := event.ListenerFunc(event.PhaseTypes, func(e *event.Event) error {
		if _, err := os.Stat(path); err == nil {
			existedAt = append(existedAt, e.Type())
		}
		return nil
	})

	app, err := bootbus.New("demo", bootbus.WithPlugin(plugin), bootbus.WithListeners(observer))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := readPID(t, path); got != "4242" {
		t.Errorf("pid file content = %q, want 4242", got)
	}
	if plugin.Path() != path {
		t.Errorf("Path() = %q, want %q", plugin.Path(), path)
	}
	// The observer precedes the plugin listener, so it first sees the file on
	// the phase after the trigger.
	if len(existedAt) == 0 || existedAt[0] != event.TypeStarted {
		t.Errorf("pid file first seen at %v, want started", existedAt)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("pid file still present after shutdown: %v", err)
	}
	if plugin.Path() != "" {
		t.Errorf("Path() = %q after removal, want empty", plugin.Path())
	}
}

func TestPlugin_PathFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	configured := filepath.Join(dir, "configured.pid")
	override := filepath.Join(dir, "override.pid")

	plugin := New(Config{Path: configured, Trigger: event.TypeReady})
	app, err := bootbus.New("demo",
		bootbus.WithPlugin(plugin),
		bootbus.WithProperties(map[string]string{PathKey: override}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer app.Shutdown(context.Background())

	if _, err := os.Stat(override); err != nil {
		t.Errorf("override pid file missing: %v", err)
	}
	if _, err := os.Stat(configured); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("configured pid file should not exist: %v", err)
	}
}

func TestPlugin_WriteErrorHandling(t *testing.T) {
	// A regular file where a directory is expected makes the write fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("create blocker: %v", err)
	}
	path := filepath.Join(blocker, "app.pid")

	t.Run("logged by default", func(t *testing.T) {
		app, err := bootbus.New("demo", WithPIDFile(DefaultConfig(path)))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, err := app.Run(context.Background()); err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	})

	t.Run("fails the run when requested", func(t *testing.T) {
		app, err := bootbus.New("demo",
			WithPIDFile(DefaultConfig(path)),
			bootbus.WithProperties(map[string]string{FailOnWriteErrorKey: "true"}),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		_, err = app.Run(context.Background())
		var pe *domain.PhaseError
		if !errors.As(err, &pe) || pe.Phase != "context-loaded" {
			t.Errorf("Run() error = %v, want context-loaded phase error", err)
		}
	})
}

func TestPlugin_RemovedWhenRunFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.pid")
	hook := func(context.Context, container.Configurable) error { return errors.New("refresh failed") }

	app, err := bootbus.New("demo", WithPIDFile(DefaultConfig(path)), bootbus.WithRefreshHook(hook))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := app.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want refresh failure")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("pid file left behind after failed run: %v", err)
	}
}

func TestPlugin_Name(t *testing.T) {
	if got := New(Config{}).Name(); got != "pidfile" {
		t.Errorf("Name() = %q, want pidfile", got)
	}
}
