// Package system provides abstractions for OS operations to enable testing.
package system

import (
	"context"
)

// Command describes a process to run.
type Command struct {
	Name string
	Args []string

	// Env is appended to the current process environment.
	Env []string

	// Stdin is written to the process's standard input when non-empty.
	Stdin string
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Execute runs a command and returns its combined output.
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs cmd and returns its combined output.
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

var defaultExecutor CommandExecutor = &osExecutor{}

// DefaultExecutor returns the default CommandExecutor implementation.
func DefaultExecutor() CommandExecutor {
	return defaultExecutor
}

// SetDefaultExecutor sets the default CommandExecutor (useful for testing).
func SetDefaultExecutor(exec CommandExecutor) {
	defaultExecutor = exec
}

// ResetDefaults restores the default OS implementations.
func ResetDefaults() {
	defaultExecutor = &osExecutor{}
}
