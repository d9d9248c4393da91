package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gido-dev/gido/internal/app"
	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/logging"
	"github.com/gido-dev/gido/internal/monitor"
	"github.com/gido-dev/gido/internal/notify"
	"github.com/gido-dev/gido/internal/tui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a page for maintenance and notify when it is back",
	Long: `Polls the configured page, looks for the maintenance marker in its text
and sends a notification when the page goes from maintenance to online.
The first check runs immediately. Runs in the foreground until interrupted.

Notifications go by email when [smtp] is configured and are only logged
otherwise. monitor.on_online adds a command hook.

Can be wrapped in a systemd service for persistent monitoring.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorInterval string
	monitorURL      string
	monitorMarker   string
	monitorTUI      bool
)

func init() {
	monitorCmd.Flags().StringVar(&monitorInterval, "interval", "", "Check interval, e.g. 60 or 2m (default from config)")
	monitorCmd.Flags().StringVar(&monitorURL, "url", "", "Page to monitor (default from config)")
	monitorCmd.Flags().StringVar(&monitorMarker, "marker", "", "Maintenance marker text (default from config)")
	monitorCmd.Flags().BoolVar(&monitorTUI, "tui", false, "Show a live dashboard")
	rootCmd.AddCommand(monitorCmd)
}

// monitorConfig applies the command-line overrides to the monitor section.
func monitorConfig(interval, url, marker string) (config.MonitorConfig, error) {
	mc := appConfig().Monitor
	if url != "" {
		mc.URL = url
	}
	if marker != "" {
		mc.Marker = marker
	}
	if interval != "" {
		d, err := config.ParseInterval(interval)
		if err != nil {
			return mc, errors.ConfigError("invalid --interval", err)
		}
		mc.Interval = d
	}
	if err := mc.Validate(); err != nil {
		return mc, errors.ConfigError("invalid monitor configuration", err)
	}
	return mc, nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	mc, err := monitorConfig(monitorInterval, monitorURL, monitorMarker)
	if err != nil {
		return err
	}

	notifier, err := app.Default.Notifier()
	if err != nil {
		return err
	}

	opts := []monitor.Option{
		monitor.WithNotifier(notifier),
		monitor.WithAuditLogger(auditLogger()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if monitorTUI {
		return runMonitorDashboard(ctx, mc, notifier, opts)
	}

	logInfo("Monitoring %s every %s (notifier: %s)", mc.URL, mc.Interval, notifier.Name())

	mon := monitor.New(mc, opts...)
	err = mon.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logInfo("Monitor stopped")
		return nil
	}
	return err
}

// runMonitorDashboard runs the monitor behind the dashboard. Logs go to
// monitor.log in the state directory while the dashboard owns the terminal.
func runMonitorDashboard(ctx context.Context, mc config.MonitorConfig, notifier notify.Notifier, opts []monitor.Option) error {
	logPath := filepath.Join(paths().StateDir, "monitor.log")
	logFile, err := openLogFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	prevStdout := logging.Stdout
	logging.Setup(verbose, jsonOutput, logFile)
	logging.Stdout = logFile
	defer func() {
		logging.Setup(verbose, jsonOutput, os.Stderr)
		logging.Stdout = prevStdout
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	err = tui.RunDashboard(ctx, mc, notifier.Name(), func(send func(monitor.CheckResult)) {
		mon := monitor.New(mc, append(opts, monitor.WithObserver(send))...)
		go func() {
			defer close(done)
			mon.Run(ctx)
		}()
	})

	cancel()
	<-done
	return err
}

func openLogFile(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
