// Package models defines the GORM models for the smoke-run history store.
package models

import "time"

// SmokeRun is one execution of the full smoke suite.
type SmokeRun struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Trigger    string `gorm:"size:16;default:manual;index"` // "manual" or "cron"
	Endpoint   string `gorm:"size:256"`
	Model      string `gorm:"size:64"`
	Passed     bool   `gorm:"index"`
	StartedAt  time.Time
	FinishedAt time.Time

	Scenarios []ScenarioResult `gorm:"foreignKey:SmokeRunID"`
}

// ScenarioResult is the outcome of a single scenario within a run.
type ScenarioResult struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	SmokeRunID     uint   `gorm:"not null;index"`
	Name           string `gorm:"size:32;not null"`
	Skipped        bool
	Passed         bool
	Classification string `gorm:"size:32"`
	Text           string `gorm:"type:text"`
	Citations      string `gorm:"type:json"` // JSON array of URLs
	Attempts       int
	DurationMs     int
	Error          string `gorm:"type:text"`
	CreatedAt      time.Time
}
