package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gido-dev/gido/internal/audit"
)

// eventItem implements list.Item for audit event display
type eventItem struct {
	event audit.Event
}

func (i eventItem) Title() string {
	return fmt.Sprintf("%s %s", eventIcon(i.event.Type), i.event.Type)
}

func (i eventItem) Description() string {
	desc := i.event.Timestamp.Format(time.DateTime)
	if i.event.Details != "" {
		desc += " | " + truncate(i.event.Details, 60)
	}
	return desc
}

func (i eventItem) FilterValue() string {
	return string(i.event.Type) + " " + i.event.Details
}

func eventIcon(t audit.EventType) string {
	switch t {
	case audit.EventOnline:
		return "✓"
	case audit.EventMaintenance:
		return "○"
	case audit.EventNotified:
		return "✉"
	case audit.EventFetchError, audit.EventNotifyError:
		return "⚠"
	}
	return "●"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

var selectedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("39")).
	Bold(true)

// EventBrowser is the bubbletea model for browsing a target's audit log.
type EventBrowser struct {
	list     list.Model
	quitting bool
}

// NewEventBrowser lists events newest first.
func NewEventBrowser(target string, events []audit.Event) EventBrowser {
	items := make([]list.Item, len(events))
	for i, e := range events {
		items[len(events)-1-i] = eventItem{event: e}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "gido - " + target + " events"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return EventBrowser{list: l}
}

func (m EventBrowser) Init() tea.Cmd {
	return nil
}

func (m EventBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m EventBrowser) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View() + "\n" + helpStyle.Render("[/] Filter  [q] Quit")
}

// RunEventBrowser runs the interactive audit log browser
func RunEventBrowser(target string, events []audit.Event) error {
	p := tea.NewProgram(NewEventBrowser(target, events), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// FormatEvents renders events as plain text, oldest first.
func FormatEvents(target string, events []audit.Event) string {
	var sb strings.Builder

	sb.WriteString("gido - " + target + "\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n")

	if len(events) == 0 {
		sb.WriteString("No events recorded.\n")
		return sb.String()
	}

	for _, e := range events {
		line := fmt.Sprintf("%s %s %-12s", e.Timestamp.Format(time.DateTime), eventIcon(e.Type), e.Type)
		if e.Details != "" {
			line += " " + e.Details
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	return sb.String()
}
