package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/notify"
	"github.com/gido-dev/gido/internal/system"
)

func TestNew(t *testing.T) {
	app := New()

	if app == nil {
		t.Fatal("New() returned nil")
	}

	// Should have default paths
	if app.Paths == nil {
		t.Error("Paths should not be nil")
	}
	if app.Executor == nil {
		t.Error("Executor should not be nil")
	}

	// Config stays nil until loaded
	if app.Config != nil {
		t.Error("Config should be nil before LoadConfig")
	}
}

func TestNew_WithPaths(t *testing.T) {
	customPaths := config.PathsFor("/custom/config", "/custom/state", "/custom/secrets")

	app := New(WithPaths(customPaths))

	if app.Paths != customPaths {
		t.Error("WithPaths did not set custom paths")
	}
}

func TestNew_WithExecutor(t *testing.T) {
	mock := system.NewMockExecutor()

	app := New(WithExecutor(mock))

	if app.Executor != mock {
		t.Error("WithExecutor did not set executor")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GIDO_MONITOR_URL", "")

	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	path := filepath.Join(dir, "config.toml")
	data := "state_dir = \"" + stateDir + "\"\n\n[monitor]\nname = \"status-page\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	app := New(WithPaths(config.PathsFor(dir, filepath.Join(dir, "unused"), filepath.Join(dir, "secrets"))))
	if err := app.LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if app.Config.Monitor.Name != "status-page" {
		t.Errorf("Monitor.Name = %q", app.Config.Monitor.Name)
	}
	if app.Paths.StateDir != stateDir {
		t.Errorf("Paths.StateDir = %q, want %q", app.Paths.StateDir, stateDir)
	}
	if app.Paths.TargetsDir != filepath.Join(stateDir, "targets") {
		t.Errorf("Paths.TargetsDir = %q", app.Paths.TargetsDir)
	}
}

func TestLoadConfig_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsFor(dir, filepath.Join(dir, "state"), filepath.Join(dir, "secrets"))
	if err := os.WriteFile(paths.ConfigFile, []byte("[monitor]\nname = \"from-default\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	app := New(WithPaths(paths))
	if err := app.LoadConfig(""); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if app.Config.Monitor.Name != "from-default" {
		t.Errorf("Monitor.Name = %q", app.Config.Monitor.Name)
	}
}

func TestLoadConfig_KeepsPreloaded(t *testing.T) {
	cfg := config.Default()
	cfg.Monitor.Name = "preloaded"

	app := New(WithConfig(cfg))
	if err := app.LoadConfig("/nonexistent/config.toml"); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if app.Config != cfg {
		t.Error("LoadConfig replaced a preloaded config")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[monitor\n"), 0644); err != nil {
		t.Fatal(err)
	}

	app := New()
	err := app.LoadConfig(path)
	if errors.GetExitCode(err) != errors.ExitConfigError {
		t.Errorf("expected config error, got %v", err)
	}
	if app.Config != nil {
		t.Error("Config should stay nil after a failed load")
	}
}

func TestAuditLogger(t *testing.T) {
	dir := t.TempDir()
	app := New(WithPaths(config.PathsFor(dir, dir, dir)))

	if err := app.AuditLogger().LogEvent("online", "epbc", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "targets", "epbc.events.jsonl")); err != nil {
		t.Errorf("audit log not written under state dir: %v", err)
	}
}

func TestNotifier(t *testing.T) {
	t.Run("default config logs", func(t *testing.T) {
		n, err := New().Notifier()
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := n.(*notify.LogNotifier); !ok {
			t.Errorf("Notifier() = %T, want *notify.LogNotifier", n)
		}
	})

	t.Run("hook uses executor", func(t *testing.T) {
		cfg := config.Default()
		cfg.Monitor.OnOnline = "ntfy publish gido"
		mock := system.NewMockExecutor()

		n, err := New(WithConfig(cfg), WithExecutor(mock)).Notifier()
		if err != nil {
			t.Fatal(err)
		}
		if err := n.Notify(t.Context(), notify.Message{Target: "epbc", Subject: "up"}); err != nil {
			t.Fatal(err)
		}
		if cmd, ok := mock.LastCommand(); !ok || cmd.Name != "ntfy" {
			t.Errorf("hook not run through executor, got %+v", cmd)
		}
	})
}

func TestSetDefault(t *testing.T) {
	original := Default
	defer func() { Default = original }()

	custom := New(WithConfig(config.Default()))
	SetDefault(custom)
	if Default != custom {
		t.Error("SetDefault did not set Default")
	}

	ResetDefault()
	if Default == custom {
		t.Error("ResetDefault did not reset Default")
	}
}
