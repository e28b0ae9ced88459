package db

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/groundcheck/groundcheck/internal/models"
	"github.com/groundcheck/groundcheck/internal/smoke"
)

// SaveReport persists a suite report with its scenario rows. trigger is
// "manual" or "cron".
func SaveReport(db *gorm.DB, trigger string, report *smoke.Report) (*models.SmokeRun, error) {
	run := &models.SmokeRun{
		Trigger:    trigger,
		Endpoint:   report.Endpoint,
		Model:      report.Model,
		Passed:     report.Passed(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}

	for _, s := range report.Scenarios {
		citations, err := json.Marshal(s.Citations)
		if err != nil {
			return nil, fmt.Errorf("db: encode citations: %w", err)
		}
		row := models.ScenarioResult{
			Name:           s.Name,
			Skipped:        s.Skipped,
			Passed:         s.Passed,
			Classification: s.Classification,
			Text:           s.Text,
			Citations:      string(citations),
			Attempts:       s.Attempts,
			DurationMs:     int(s.Duration.Milliseconds()),
		}
		if s.Err != nil {
			row.Error = s.Err.Error()
		}
		run.Scenarios = append(run.Scenarios, row)
	}

	if err := db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("db: save smoke run: %w", err)
	}
	return run, nil
}

// RecentRuns returns the newest runs with their scenarios, newest first.
func RecentRuns(db *gorm.DB, limit int) ([]models.SmokeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.SmokeRun
	if err := db.Preload("Scenarios").Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("db: list smoke runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its scenarios.
func GetRun(db *gorm.DB, id uint) (*models.SmokeRun, error) {
	var run models.SmokeRun
	if err := db.Preload("Scenarios").First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("db: load smoke run %d: %w", id, err)
	}
	return &run, nil
}
