// Package notify fans smoke-run results out to chat platforms (Slack,
// Discord). Adapters are send-only; the harness never listens for replies.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/groundcheck/groundcheck/internal/smoke"
)

// timeRounding keeps durations readable in chat messages.
const timeRounding = time.Second

// Adapter is the interface platform-specific notifiers satisfy.
type Adapter interface {
	// Name identifies the platform, e.g. "slack".
	Name() string

	// Send delivers one event to the platform.
	Send(ctx context.Context, event Event) error

	// Close releases the adapter's resources.
	Close() error
}

// Event is a formatted notification.
type Event struct {
	Title    string
	Body     string
	Severity string // "success", "info", "warning", "error"
	Fields   []Field
}

// Field is a key-value pair rendered in the event attachment.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Sidebar colors per severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// SeverityColor maps a severity string to its sidebar color.
func SeverityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// FormatReport turns a suite report into one notification event.
func FormatReport(report *smoke.Report) Event {
	event := Event{
		Severity: "success",
		Title:    "Smoke suite passed",
	}
	if !report.Passed() {
		event.Severity = "error"
		event.Title = "Smoke suite FAILED"
	}

	var lines []string
	for _, s := range report.Scenarios {
		switch {
		case s.Skipped:
			lines = append(lines, fmt.Sprintf("%s: skipped", s.Name))
		case s.Passed:
			lines = append(lines, fmt.Sprintf("%s: pass (%d citations, %d polls)",
				s.Name, len(s.Citations), s.Attempts))
		default:
			lines = append(lines, fmt.Sprintf("%s: FAIL (%s): %v", s.Name, s.Classification, s.Err))
		}
	}
	event.Body = strings.Join(lines, "\n")

	event.Fields = []Field{
		{Name: "Model", Value: report.Model, Short: true},
		{Name: "Duration", Value: report.FinishedAt.Sub(report.StartedAt).Round(timeRounding).String(), Short: true},
	}
	return event
}

// Notify sends the event to every adapter, isolating per-adapter failures.
// The returned error joins every adapter failure, or nil.
func Notify(ctx context.Context, adapters []Adapter, event Event) error {
	var errs []string
	for _, a := range adapters {
		if err := a.Send(ctx, event); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", a.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}
