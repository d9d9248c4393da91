// Package tui provides terminal user interface components for gido.
//
// This package uses the Bubble Tea framework for the live monitor
// dashboard and the audit log browser.
//
// # Monitor Dashboard
//
// The dashboard shows the target, its current status badge, the last
// check and a short history. Results arrive from the monitor's observer:
//
//	err := tui.RunDashboard(ctx, cfg.Monitor, notifier.Name(), func(send func(monitor.CheckResult)) {
//	    m := monitor.New(cfg.Monitor, monitor.WithObserver(send))
//	    go m.Run(ctx)
//	})
//
// # Event Browser
//
// RunEventBrowser lists a target's audit events newest first, with
// filtering. FormatEvents is the non-interactive rendering.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
