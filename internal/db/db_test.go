package db

import (
	"encoding/json"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/groundcheck/groundcheck/internal/smoke"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleReport(passed bool) *smoke.Report {
	started := time.Now().UTC().Add(-time.Minute)
	r := &smoke.Report{
		Endpoint:   "https://acct.services.ai.azure.com/api/projects/proj",
		Model:      "gpt-4o",
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
		Scenarios: []smoke.ScenarioReport{
			{
				Name:           smoke.ScenarioNoGrounding,
				Passed:         true,
				Classification: smoke.ClassPass,
				Text:           "It is raining.",
				Attempts:       3,
				Duration:       4 * time.Second,
			},
		},
	}
	grounded := smoke.ScenarioReport{
		Name:           smoke.ScenarioBingGrounding,
		Passed:         passed,
		Classification: smoke.ClassPass,
		Text:           "Rain, 54F.",
		Citations:      []string{"https://example.com/wx"},
		Attempts:       6,
		Duration:       8 * time.Second,
	}
	if !passed {
		grounded.Classification = smoke.ClassMissingCitations
		grounded.Citations = nil
	}
	r.Scenarios = append(r.Scenarios, grounded)
	return r
}

func TestSaveReport_RoundTrip(t *testing.T) {
	db := testDB(t)

	saved, err := SaveReport(db, "manual", sampleReport(true))
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == 0 {
		t.Fatal("saved run has no id")
	}
	if !saved.Passed {
		t.Error("Passed should be true")
	}

	loaded, err := GetRun(db, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Scenarios) != 2 {
		t.Fatalf("len(Scenarios) = %d, want 2", len(loaded.Scenarios))
	}

	var urls []string
	if err := json.Unmarshal([]byte(loaded.Scenarios[1].Citations), &urls); err != nil {
		t.Fatalf("citations not valid JSON: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://example.com/wx" {
		t.Errorf("citations = %v", urls)
	}
}

func TestSaveReport_FailedRun(t *testing.T) {
	db := testDB(t)

	saved, err := SaveReport(db, "cron", sampleReport(false))
	if err != nil {
		t.Fatal(err)
	}
	if saved.Passed {
		t.Error("Passed should be false when a scenario failed")
	}
	if saved.Trigger != "cron" {
		t.Errorf("Trigger = %q", saved.Trigger)
	}
}

func TestRecentRuns_NewestFirstAndLimited(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 5; i++ {
		if _, err := SaveReport(db, "manual", sampleReport(true)); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := RecentRuns(db, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Error("runs not newest first")
	}
	if len(runs[0].Scenarios) != 2 {
		t.Error("scenarios not preloaded")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := GetRun(db, 42); err == nil {
		t.Fatal("want error for missing run")
	}
}
