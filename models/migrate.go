package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Partial unique indexes backing the booking invariants. The syntax is
// shared by PostgreSQL and SQLite.
var jobIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_started_slot
		ON jobs (worker_id, date, time) WHERE status = 'started'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_active_pair
		ON jobs (client_id, worker_id) WHERE status IN ('pending', 'started')`,
}

// Migrate creates or updates every table and the booking indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&WorkerProfile{},
		&WorkerAvailability{},
		&Job{},
		&Invoice{},
		&Review{},
		&Conversation{},
		&Message{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	for _, stmt := range jobIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create job index: %w", err)
		}
	}
	return nil
}
