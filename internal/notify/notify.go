// Package notify delivers monitor notifications.
package notify

import (
	"context"
	"strings"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/logging"
	"github.com/gido-dev/gido/internal/system"
)

// Message is a notification about a monitored target.
type Message struct {
	Target  string
	Subject string
	Body    string
	URL     string
}

// Notifier delivers a Message. Failures are returned as NotificationError.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Name() string
}

// Multi sends each message to every notifier in order.
type Multi []Notifier

// Notify delivers msg through all notifiers and joins their errors.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			logging.Debug("notifier failed", "notifier", n.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return strings.Join(names, "+")
}

// FromConfig builds the notifiers the configuration asks for: SMTP when it
// is configured (logging otherwise), plus the on_online command hook.
func FromConfig(cfg *config.Config, exec system.CommandExecutor) (Notifier, error) {
	var primary Notifier
	if cfg.SMTP.Enabled() {
		primary = NewSMTPNotifier(cfg.SMTP)
	} else {
		logging.Warn("smtp is not configured, notifications will only be logged")
		primary = NewLogNotifier()
	}

	if cfg.Monitor.OnOnline == "" {
		return primary, nil
	}

	hook, err := NewCommandNotifier(cfg.Monitor.OnOnline, exec, cfg.Monitor.HookTimeout)
	if err != nil {
		return nil, errors.ConfigError("invalid monitor.on_online", err)
	}
	return Multi{primary, hook}, nil
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	logging.Info("notification", "target", msg.Target, "subject", msg.Subject, "url", msg.URL)
	logging.UserInfo("[notification] %s", msg.Subject)
	for _, line := range strings.Split(msg.Body, "\n") {
		logging.UserInfo("  %s", line)
	}
	return nil
}

func (n *LogNotifier) Name() string { return "log" }
