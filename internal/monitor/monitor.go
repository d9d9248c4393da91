// Package monitor polls a web page for a maintenance banner and notifies
// when the page comes back online.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/gido-dev/gido/internal/audit"
	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/health"
	"github.com/gido-dev/gido/internal/logging"
	"github.com/gido-dev/gido/internal/notify"
	"github.com/gido-dev/gido/internal/page"
)

// Fetcher returns the text content of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CheckResult holds the result of a single poll cycle.
type CheckResult struct {
	Target    string
	Status    health.Status
	Previous  health.Status
	Notified  bool
	Err       error
	CheckedAt time.Time
	Duration  time.Duration
}

// Changed reports whether the cycle moved the monitor to a new state.
func (r CheckResult) Changed() bool {
	return r.Status.Known() && r.Status != r.Previous
}

// Observer receives every CheckResult. It runs on the monitor goroutine
// and must not block.
type Observer func(CheckResult)

// Monitor polls one page. State lives in the Monitor and is only touched
// by the goroutine running Run.
type Monitor struct {
	cfg      config.MonitorConfig
	fetcher  Fetcher
	notifier notify.Notifier
	auditLog *audit.Logger
	observer Observer
	now      func() time.Time

	state    health.Status
	wentDown time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithFetcher replaces the HTTP page fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Monitor) {
		m.fetcher = f
	}
}

// WithNotifier sets where back-online notifications go.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Monitor) {
		m.notifier = n
	}
}

// WithAuditLogger sets the audit logger for recording state changes and errors.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithObserver registers a callback for every check result.
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		m.observer = o
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// New creates a new Monitor in the initial (maintenance) state.
func New(cfg config.MonitorConfig, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:   cfg,
		now:   time.Now,
		state: health.Initial,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fetcher == nil {
		m.fetcher = page.NewFetcher(nil, cfg.Timeout)
	}
	if m.notifier == nil {
		m.notifier = notify.NewLogNotifier()
	}
	return m
}

// State returns the last known page status.
func (m *Monitor) State() health.Status {
	return m.state
}

// Transition computes the next state from the previous state and an
// observation, and whether the change warrants a notification. Only
// maintenance followed by online notifies; errors leave the state alone.
func Transition(prev, observed health.Status) (next health.Status, shouldNotify bool) {
	switch observed {
	case health.StatusOnline:
		return health.StatusOnline, prev == health.StatusMaintenance
	case health.StatusMaintenance:
		return health.StatusMaintenance, false
	default:
		return prev, false
	}
}

// Probe fetches url once and classifies it against marker.
func Probe(ctx context.Context, f Fetcher, url, marker string) (health.Status, error) {
	text, err := f.Fetch(ctx, url)
	if err != nil {
		return health.StatusError, err
	}
	return health.Classify(text, marker), nil
}

// Run starts the polling loop. The first check runs immediately, then the
// monitor sleeps for the interval after each check completes. It blocks
// until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Info("starting maintenance monitor",
		"target", m.cfg.Name, "url", m.cfg.URL, "interval", m.cfg.Interval, "notifier", m.notifier.Name())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("maintenance monitor stopping")
			return ctx.Err()
		case <-timer.C:
			m.Check(ctx)
			timer.Reset(m.cfg.Interval)
		}
	}
}

// Check performs one poll cycle: fetch, classify, transition and, on the
// maintenance to online edge, notify.
func (m *Monitor) Check(ctx context.Context) CheckResult {
	start := m.now()
	result := CheckResult{
		Target:    m.cfg.Name,
		Previous:  m.state,
		CheckedAt: start,
	}

	observed, err := Probe(ctx, m.fetcher, m.cfg.URL, m.cfg.Marker)
	if err != nil {
		result.Status = health.StatusError
		result.Err = err
		if ctx.Err() == nil {
			logging.Warn("page check failed", "target", m.cfg.Name, "error", err)
			m.audit(audit.EventFetchError, err.Error())
		}
		return m.finish(result, start)
	}

	next, shouldNotify := Transition(m.state, observed)
	result.Status = next

	if observed == health.StatusMaintenance && m.wentDown.IsZero() {
		m.wentDown = start
	}

	if next != m.state {
		logging.Info("page status changed", "target", m.cfg.Name, "from", m.state, "to", next)
		m.audit(eventFor(next), fmt.Sprintf("was %s", m.state))
	} else {
		logging.Debug("page status unchanged", "target", m.cfg.Name, "status", next)
	}

	// The state moves even when delivery fails: the edge has been seen.
	m.state = next

	if shouldNotify {
		result.Notified = m.sendOnline(ctx, start)
		m.wentDown = time.Time{}
	}

	return m.finish(result, start)
}

func (m *Monitor) finish(result CheckResult, start time.Time) CheckResult {
	result.Duration = m.now().Sub(start)
	if m.observer != nil {
		m.observer(result)
	}
	return result
}

func (m *Monitor) sendOnline(ctx context.Context, now time.Time) bool {
	msg := OnlineMessage(m.cfg, m.wentDown, now)

	if err := m.notifier.Notify(ctx, msg); err != nil {
		var gidoErr *errors.Error
		auth := errors.As(err, &gidoErr) && gidoErr.Auth
		logging.Error("notification failed", "target", m.cfg.Name, "notifier", m.notifier.Name(), "auth", auth, "error", err)
		m.audit(audit.EventNotifyError, err.Error())
		return false
	}

	logging.Info("notification sent", "target", m.cfg.Name, "notifier", m.notifier.Name())
	m.audit(audit.EventNotified, m.notifier.Name())
	return true
}

// OnlineMessage builds the back-online notification. wentDown is when
// maintenance was first observed, zero when unknown.
func OnlineMessage(cfg config.MonitorConfig, wentDown, now time.Time) notify.Message {
	body := fmt.Sprintf("%s\n\nVisit: %s", cfg.BodyIntro, cfg.URL)
	if !wentDown.IsZero() {
		body += fmt.Sprintf("\n\nMaintenance was observed for %s.", health.Since(wentDown, now))
	}
	return notify.Message{
		Target:  cfg.Name,
		Subject: cfg.Subject,
		Body:    body,
		URL:     cfg.URL,
	}
}

func eventFor(s health.Status) audit.EventType {
	if s == health.StatusOnline {
		return audit.EventOnline
	}
	return audit.EventMaintenance
}

func (m *Monitor) audit(t audit.EventType, details string) {
	if m.auditLog == nil {
		return
	}
	if err := m.auditLog.LogEvent(t, m.cfg.Name, details); err != nil {
		logging.Warn("failed to write audit event", "target", m.cfg.Name, "error", err)
	}
}
