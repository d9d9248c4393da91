package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/health"
	"github.com/gido-dev/gido/internal/monitor"
)

// historySize is how many check results the dashboard keeps.
const historySize = 10

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	onlineStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	maintenanceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// ResultMsg delivers a monitor check result to the dashboard.
type ResultMsg monitor.CheckResult

// Dashboard is the bubbletea model for the live monitor view.
type Dashboard struct {
	cfg      config.MonitorConfig
	notifier string
	spinner  spinner.Model
	state    health.Status
	last     *monitor.CheckResult
	history  []monitor.CheckResult
	notified int
	now      func() time.Time
	quitting bool
}

// NewDashboard creates a dashboard for the given target. notifier is the
// name of the configured notification channel.
func NewDashboard(cfg config.MonitorConfig, notifier string) Dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return Dashboard{
		cfg:      cfg,
		notifier: notifier,
		spinner:  s,
		state:    health.Initial,
		now:      time.Now,
	}
}

func (m Dashboard) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case ResultMsg:
		r := monitor.CheckResult(msg)
		m.last = &r
		if r.Status.Known() {
			m.state = r.Status
		}
		if r.Notified {
			m.notified++
		}
		m.history = append(m.history, r)
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Dashboard) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("gido - " + m.cfg.Name))
	sb.WriteString("\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label) + value + "\n")
	}

	row("URL", m.cfg.URL)
	row("Status", m.spinner.View()+" "+badge(m.state))
	row("Interval", m.cfg.Interval.String())
	row("Notifier", m.notifier)

	if m.last == nil {
		row("Last check", "pending")
	} else {
		ago := health.Since(m.last.CheckedAt, m.now())
		row("Last check", fmt.Sprintf("%s ago (%s)", ago, m.last.Duration.Round(time.Millisecond)))
		if m.last.Err != nil {
			row("Error", errorStyle.Render(m.last.Err.Error()))
		}
	}
	row("Notified", fmt.Sprintf("%d", m.notified))

	if len(m.history) > 0 {
		sb.WriteString("\nRecent checks\n")
		for i := len(m.history) - 1; i >= 0; i-- {
			sb.WriteString("  " + historyLine(m.history[i]) + "\n")
		}
	}

	sb.WriteString(helpStyle.Render("[q] Quit"))
	return sb.String()
}

// State returns the last known page status.
func (m Dashboard) State() health.Status {
	return m.state
}

// History returns the retained check results, oldest first.
func (m Dashboard) History() []monitor.CheckResult {
	return m.history
}

func badge(s health.Status) string {
	switch s {
	case health.StatusOnline:
		return onlineStyle.Render("ONLINE")
	case health.StatusMaintenance:
		return maintenanceStyle.Render("MAINTENANCE")
	default:
		return errorStyle.Render("ERROR")
	}
}

func historyLine(r monitor.CheckResult) string {
	icon := "●"
	switch {
	case r.Err != nil:
		icon = "⚠"
	case r.Status == health.StatusOnline:
		icon = "✓"
	case r.Status == health.StatusMaintenance:
		icon = "○"
	}

	line := fmt.Sprintf("%s %s %s", icon, r.CheckedAt.Format("15:04:05"), r.Status)
	if r.Changed() {
		line += fmt.Sprintf(" (was %s)", r.Previous)
	}
	if r.Notified {
		line += " notified"
	}
	return line
}

// RunDashboard runs the dashboard until the user quits or ctx is done.
// start is called with a send function once the program exists; it should
// begin feeding results, typically via monitor.WithObserver.
func RunDashboard(ctx context.Context, cfg config.MonitorConfig, notifier string, start func(send func(monitor.CheckResult))) error {
	p := tea.NewProgram(NewDashboard(cfg, notifier), tea.WithAltScreen(), tea.WithContext(ctx))

	start(func(r monitor.CheckResult) {
		p.Send(ResultMsg(r))
	})

	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
