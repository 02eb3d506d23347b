package services

import (
	"context"
	"strings"
	"time"

	"homeserve-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db, now: time.Now}
}

type ReviewInput struct {
	Rating  int
	Comment string
	Photos  []string
}

// SubmitReview records the reviewer's one review of the other participant
// of a completed job. Clients may only review once they have paid.
func (s *ReviewService) SubmitReview(ctx context.Context, p Principal, jobID uuid.UUID, in ReviewInput) (*models.Review, error) {
	review, err := s.submitReview(ctx, p, jobID, in)
	if err != nil {
		observeRefusal(err)
		return nil, err
	}
	reviewsTotal.WithLabelValues(string(p.Role)).Inc()
	return review, nil
}

func (s *ReviewService) submitReview(ctx context.Context, p Principal, jobID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if err := Authorize(p, CapReviewJob).Err(); err != nil {
		return nil, err
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}
	if err := validatePhotos(in.Photos); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ? AND status = ?", jobID, models.JobCompleted)
		if p.Role == RoleClient {
			q = q.Where("client_id = ? AND is_paid = ?", p.ID, true)
		} else {
			q = q.Where("worker_id = ?", p.ID)
		}
		var job models.Job
		err := q.First(&job).Error
		if isNotFound(err) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}

		review = models.Review{
			ReviewerID: p.ID,
			RevieweeID: job.ClientID,
			JobID:      job.ID,
			Rating:     in.Rating,
			Comment:    strings.TrimSpace(in.Comment),
			Photos:     in.Photos,
			CreatedAt:  s.now(),
		}
		if p.Role == RoleClient {
			review.RevieweeID = job.WorkerID
		}
		return insertReview(tx, &review)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// insertReview stores a review once per (reviewer, job). The unique index
// settles races the pre-check misses.
func insertReview(tx *gorm.DB, review *models.Review) error {
	var n int64
	if err := tx.Model(&models.Review{}).
		Where("reviewer_id = ? AND job_id = ?", review.ReviewerID, review.JobID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrAlreadyReviewed
	}
	if err := tx.Omit("Reviewer").Create(review).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

// ReviewsFor lists reviews left about a user, newest first.
func (s *ReviewService) ReviewsFor(ctx context.Context, userID uuid.UUID, limit int) ([]models.Review, error) {
	return reviewsFor(s.db.WithContext(ctx), userID, limit)
}

func reviewsFor(db *gorm.DB, userID uuid.UUID, limit int) ([]models.Review, error) {
	reviews := []models.Review{}
	q := db.Preload("Reviewer").Where("reviewee_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&reviews).Error
	return reviews, err
}
