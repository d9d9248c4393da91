package health

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the observed status of a monitored page
type Status string

const (
	StatusMaintenance Status = "maintenance"
	StatusOnline      Status = "online"

	// StatusError is transient: a failed check says nothing about the page,
	// so it never replaces the last known status.
	StatusError Status = "error"
)

// Initial is the status assumed before the first successful check.
const Initial = StatusMaintenance

// Known reports whether s is a page status rather than a check failure.
func (s Status) Known() bool {
	return s == StatusMaintenance || s == StatusOnline
}

// Classify returns StatusMaintenance when text contains marker, compared
// case-insensitively, and StatusOnline otherwise.
func Classify(text, marker string) Status {
	if strings.Contains(strings.ToLower(text), strings.ToLower(marker)) {
		return StatusMaintenance
	}
	return StatusOnline
}

// Since formats the time elapsed between start and now, or "unknown" when
// start is zero.
func Since(start, now time.Time) string {
	if start.IsZero() || now.Before(start) {
		return "unknown"
	}
	return FormatDuration(now.Sub(start))
}

// FormatDuration renders d at its two most significant units.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
