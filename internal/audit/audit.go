// Package audit records what the maintenance monitor observed.
// Events are stored as JSON Lines (JSONL) files, one per monitored target.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// EventType classifies a monitor event.
type EventType string

const (
	EventMaintenance EventType = "maintenance"
	EventOnline      EventType = "online"
	EventFetchError  EventType = "fetch-error"
	EventNotified    EventType = "notified"
	EventNotifyError EventType = "notify-error"
)

const eventSuffix = ".events.jsonl"

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Target    string    `json:"target"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads audit events for monitored targets.
// Events are stored in {stateDir}/targets/{name}.events.jsonl.
type Logger struct {
	stateDir string
	mu       sync.Mutex
}

// NewLogger creates a new audit logger rooted at stateDir.
func NewLogger(stateDir string) *Logger {
	return &Logger{stateDir: stateDir}
}

func (l *Logger) targetsDir() string {
	return filepath.Join(l.stateDir, "targets")
}

// eventPath returns the path to the JSONL event log for a target.
func (l *Logger) eventPath(target string) string {
	return filepath.Join(l.targetsDir(), target+eventSuffix)
}

// Log appends an event to the target's audit log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Target == "" {
		return fmt.Errorf("audit event has no target")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.eventPath(event.Target)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, target, details string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Target:    target,
		Details:   details,
	})
}

// Events reads all events for a target in chronological order.
func (l *Logger) Events(target string) ([]Event, error) {
	path := l.eventPath(target)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// Targets lists the targets that have an audit log, sorted by name.
func (l *Logger) Targets() ([]string, error) {
	entries, err := os.ReadDir(l.targetsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	var targets []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), eventSuffix) {
			continue
		}
		targets = append(targets, strings.TrimSuffix(e.Name(), eventSuffix))
	}
	sort.Strings(targets)
	return targets, nil
}

// Remove deletes the audit log for a target.
func (l *Logger) Remove(target string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.eventPath(target)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
