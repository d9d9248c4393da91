package cmd

import (
	"github.com/gido-dev/gido/internal/app"
	"github.com/gido-dev/gido/internal/audit"
	"github.com/gido-dev/gido/internal/config"
)

// appConfig returns the loaded configuration.
// This is a helper to reduce repetition in commands.
func appConfig() *config.Config {
	if app.Default.Config == nil {
		return config.Default()
	}
	return app.Default.Config
}

// paths returns the configured paths.
func paths() *config.Paths {
	return app.Default.Paths
}

// auditLogger returns the monitor audit logger.
func auditLogger() *audit.Logger {
	return app.Default.AuditLogger()
}
