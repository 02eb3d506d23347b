package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobStarted   JobStatus = "started"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

// ActiveJobStatuses are the statuses that count against the one
// open booking per client/worker pair.
var ActiveJobStatuses = []JobStatus{JobPending, JobStarted}

// Job is one booking between a client and a worker. Rows are never
// deleted; cancellation is a terminal status.
type Job struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	WorkerID uuid.UUID `gorm:"type:uuid;not null;index:idx_jobs_worker_slot,priority:1"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index"`

	ServiceName string `gorm:"type:varchar(100);not null;default:'Home Service'"`
	Date        string `gorm:"type:varchar(10);not null;index:idx_jobs_worker_slot,priority:2"` // YYYY-MM-DD
	Time        string `gorm:"type:varchar(5);not null;index:idx_jobs_worker_slot,priority:3"`  // HH:MM
	Address     string `gorm:"not null"`
	Notes       string `gorm:"type:text"`

	Status JobStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	IsPaid         bool `gorm:"not null;default:false"`
	PaidAt         *time.Time
	TransactionRef *string `gorm:"uniqueIndex"`

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	Worker  User     `gorm:"foreignKey:WorkerID"`
	Client  User     `gorm:"foreignKey:ClientID"`
	Invoice *Invoice `gorm:"foreignKey:JobID"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}

// Involves reports whether the user is the client or the worker of the job.
func (j *Job) Involves(userID uuid.UUID) bool {
	return j.ClientID == userID || j.WorkerID == userID
}
