package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilityStatus string

const (
	AvailabilityFree   AvailabilityStatus = "free"
	AvailabilityBooked AvailabilityStatus = "booked"
	AvailabilityJob    AvailabilityStatus = "job"
)

// WorkerAvailability is one calendar cell. Rows are upserted by
// (worker, date) and never deleted.
type WorkerAvailability struct {
	ID       uuid.UUID          `gorm:"type:uuid;primary_key"`
	WorkerID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_availability_worker_date,priority:1"`
	Date     string             `gorm:"type:varchar(10);not null;uniqueIndex:idx_availability_worker_date,priority:2"` // YYYY-MM-DD
	Status   AvailabilityStatus `gorm:"type:varchar(10);not null;default:'free'"`

	UpdatedAt time.Time
}

func (a *WorkerAvailability) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
