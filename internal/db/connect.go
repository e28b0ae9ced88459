// Package db opens and migrates the smoke-run history store. SQLite is the
// default (a local file next to the harness); a MySQL DSN switches dialects
// for shared CI history.
package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/groundcheck/groundcheck/internal/config"
	"github.com/groundcheck/groundcheck/internal/models"
)

// Open connects to the history store selected by cfg and migrates it.
func Open(cfg config.HistoryConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.DSN != "" {
		db, err = gorm.Open(mysql.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect mysql: %w", err)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open %s: %w", cfg.Path, err)
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AllModels returns every history-store model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.SmokeRun{},
		&models.ScenarioResult{},
	}
}

// AutoMigrate creates or updates the history tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
