package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/groundcheck/groundcheck/internal/smoke"
)

type mockAdapter struct {
	name string
	sent []Event
	err  error
}

func (m *mockAdapter) Name() string { return m.name }
func (m *mockAdapter) Send(ctx context.Context, event Event) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, event)
	return nil
}
func (m *mockAdapter) Close() error { return nil }

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{"success", ColorSuccess},
		{"warning", ColorWarning},
		{"error", ColorError},
		{"info", ColorInfo},
		{"bogus", ColorInfo},
	}
	for _, tt := range tests {
		if got := SeverityColor(tt.severity); got != tt.want {
			t.Errorf("SeverityColor(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestFormatReport_Pass(t *testing.T) {
	report := &smoke.Report{
		Model:      "gpt-4o",
		StartedAt:  time.Now(),
		FinishedAt: time.Now().Add(45 * time.Second),
		Scenarios: []smoke.ScenarioReport{
			{Name: smoke.ScenarioNoGrounding, Passed: true, Classification: smoke.ClassPass, Attempts: 3},
			{Name: smoke.ScenarioBingGrounding, Passed: true, Classification: smoke.ClassPass,
				Citations: []string{"https://example.com"}, Attempts: 5},
		},
	}

	event := FormatReport(report)
	if event.Severity != "success" {
		t.Errorf("Severity = %q", event.Severity)
	}
	if !strings.Contains(event.Body, "bing-grounding: pass (1 citations, 5 polls)") {
		t.Errorf("Body = %q", event.Body)
	}
	if len(event.Fields) != 2 || event.Fields[0].Value != "gpt-4o" {
		t.Errorf("Fields = %+v", event.Fields)
	}
}

func TestFormatReport_FailureAndSkip(t *testing.T) {
	report := &smoke.Report{
		Scenarios: []smoke.ScenarioReport{
			{Name: smoke.ScenarioNoGrounding, Passed: false,
				Classification: smoke.ClassTimeout, Err: errors.New("no terminal status")},
			{Name: smoke.ScenarioBingGrounding, Skipped: true},
		},
	}

	event := FormatReport(report)
	if event.Severity != "error" {
		t.Errorf("Severity = %q, want error", event.Severity)
	}
	if !strings.Contains(event.Body, "no-grounding: FAIL (timeout)") {
		t.Errorf("Body = %q", event.Body)
	}
	if !strings.Contains(event.Body, "bing-grounding: skipped") {
		t.Errorf("Body = %q", event.Body)
	}
}

func TestNotify_FanOutIsolatesFailures(t *testing.T) {
	good := &mockAdapter{name: "good"}
	bad := &mockAdapter{name: "bad", err: errors.New("token revoked")}

	err := Notify(context.Background(), []Adapter{bad, good}, Event{Title: "t"})
	if err == nil {
		t.Fatal("want aggregated error")
	}
	if !strings.Contains(err.Error(), "bad: token revoked") {
		t.Errorf("error = %v", err)
	}
	if len(good.sent) != 1 {
		t.Errorf("good adapter sent %d events, want 1 despite bad adapter", len(good.sent))
	}
}

func TestNotify_NoAdaptersIsNoop(t *testing.T) {
	if err := Notify(context.Background(), nil, Event{}); err != nil {
		t.Errorf("Notify with no adapters = %v, want nil", err)
	}
}
