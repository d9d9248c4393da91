// Package app provides the application context for gido.
// It allows dependency injection for testing.
package app

import (
	"github.com/gido-dev/gido/internal/audit"
	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/logging"
	"github.com/gido-dev/gido/internal/notify"
	"github.com/gido-dev/gido/internal/system"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// Config is the loaded configuration. Nil until LoadConfig runs or
	// WithConfig supplies one.
	Config *config.Config

	// Executor runs notification hook commands
	Executor system.CommandExecutor
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithConfig sets a preloaded configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithExecutor sets a custom command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = exec
	}
}

// New creates a new App with the given options.
func New(opts ...Option) *App {
	app := &App{
		Paths:    config.DefaultPaths(),
		Executor: system.DefaultExecutor(),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// LoadConfig loads the configuration from path, or from Paths.ConfigFile
// when path is empty. A configuration that is already present is kept.
func (a *App) LoadConfig(path string) error {
	if a.Config != nil {
		return nil
	}
	if path == "" {
		path = a.Paths.ConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logging.Debug("configuration loaded", "path", path, "state_dir", cfg.StateDir)

	a.Config = cfg
	a.Paths = config.PathsFor(a.Paths.ConfigDir, cfg.StateDir, cfg.SecretsDir)
	return nil
}

// AuditLogger returns the monitor audit logger for the state directory.
func (a *App) AuditLogger() *audit.Logger {
	return audit.NewLogger(a.Paths.StateDir)
}

// Notifier builds the configured back-online notifier.
func (a *App) Notifier() (notify.Notifier, error) {
	cfg := a.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return notify.FromConfig(cfg, a.Executor)
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
