package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxReviewPhotos = 5

// Review is one participant's feedback about the other for a completed
// job. Each side may leave one review per job.
type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_reviewer_job,priority:1"`
	JobID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_reviewer_job,priority:2"`
	RevieweeID uuid.UUID `gorm:"type:uuid;not null;index"`

	Rating  int      `gorm:"not null"`
	Comment string   `gorm:"type:text"`
	Photos  []string `gorm:"serializer:json"` // media store URLs

	CreatedAt time.Time

	Reviewer User `gorm:"foreignKey:ReviewerID"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
