// Package logging provides logging utilities for gido.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for operators at a terminal
//
// # Debug Logging
//
// Logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("poll cycle", "url", url, "status", status)
//	logging.Warn("fetch failed", "url", url, "error", err)
//
// Setup also installs the logger as slog's default so that libraries
// logging through slog.Default end up in the same stream.
//
// # User Output
//
// User-facing messages are prefixed with lipgloss-styled status indicators:
//
//	logging.UserInfo("Checking %s every %s", url, interval)
//	logging.UserSuccess("Page is back online")
//	logging.UserWarning("OPENROUTER_API_KEY is not set")
//	logging.UserError("Failed to send email: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// # Status Indicators
//
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
