package services

import (
	"context"
	"strings"
	"time"

	"homeserve-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stats are computed from the review and job ledgers on every read.
type Stats struct {
	Rating       decimal.Decimal `json:"rating"`
	TotalReviews int64           `json:"totalReviews"`
	TotalJobs    int64           `json:"totalJobs"`
}

// WorkerStats is the one place worker rating and job counts come from.
// Workers with no reviews or jobs get zero stats.
func WorkerStats(db *gorm.DB, workerIDs []uuid.UUID) (map[uuid.UUID]Stats, error) {
	out := make(map[uuid.UUID]Stats, len(workerIDs))
	if len(workerIDs) == 0 {
		return out, nil
	}
	for _, id := range workerIDs {
		out[id] = Stats{Rating: decimal.Zero}
	}

	var ratings []struct {
		RevieweeID uuid.UUID
		Average    float64
		Reviews    int64
	}
	if err := db.Model(&models.Review{}).
		Select("reviewee_id, AVG(rating) AS average, COUNT(*) AS reviews").
		Where("reviewee_id IN ?", workerIDs).
		Group("reviewee_id").
		Scan(&ratings).Error; err != nil {
		return nil, err
	}
	for _, r := range ratings {
		st := out[r.RevieweeID]
		st.Rating = decimal.NewFromFloat(r.Average).Round(1)
		st.TotalReviews = r.Reviews
		out[r.RevieweeID] = st
	}

	var jobs []struct {
		WorkerID uuid.UUID
		Jobs     int64
	}
	if err := db.Model(&models.Job{}).
		Select("worker_id, COUNT(*) AS jobs").
		Where("worker_id IN ? AND status = ?", workerIDs, models.JobCompleted).
		Group("worker_id").
		Scan(&jobs).Error; err != nil {
		return nil, err
	}
	for _, j := range jobs {
		st := out[j.WorkerID]
		st.TotalJobs = j.Jobs
		out[j.WorkerID] = st
	}
	return out, nil
}

type DirectoryService struct {
	db           *gorm.DB
	availability *AvailabilityService
	cache        DirectoryCache
	log          *zap.Logger
	now          func() time.Time
}

// NewDirectoryService wires the public directory. cache may be nil.
func NewDirectoryService(db *gorm.DB, availability *AvailabilityService, cache DirectoryCache, log *zap.Logger) *DirectoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectoryService{db: db, availability: availability, cache: cache, log: log, now: time.Now}
}

type ServiceSummary struct {
	Profession  models.Profession `json:"profession"`
	Label       string            `json:"label"`
	WorkerCount int64             `json:"workerCount"`
}

// PopularServices counts active workers per profession. Every profession
// is listed, including ones with no workers.
func (s *DirectoryService) PopularServices(ctx context.Context) ([]ServiceSummary, error) {
	var cached []ServiceSummary
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, popularServicesKey(), &cached)
		if err != nil {
			s.log.Warn("directory cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	var counts []struct {
		Profession models.Profession
		Workers    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.WorkerProfile{}).
		Select("worker_profiles.profession, COUNT(*) AS workers").
		Joins("JOIN users ON users.id = worker_profiles.user_id").
		Where("users.role = ? AND users.is_active = ?", models.RoleWorker, true).
		Group("worker_profiles.profession").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byProfession := make(map[models.Profession]int64, len(counts))
	for _, c := range counts {
		byProfession[c.Profession] = c.Workers
	}

	out := make([]ServiceSummary, 0, len(models.Professions))
	for _, p := range models.Professions {
		out = append(out, ServiceSummary{Profession: p, Label: p.Label(), WorkerCount: byProfession[p]})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, popularServicesKey(), out); err != nil {
			s.log.Warn("directory cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

// InvalidateServices drops the cached profession counts.
func (s *DirectoryService) InvalidateServices(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, popularServicesKey()); err != nil {
		s.log.Warn("directory cache invalidate failed", zap.Error(err))
	}
}

type WorkerCard struct {
	Worker models.User
	Stats  Stats
}

// WorkersByProfession lists active workers in a profession with their stats.
func (s *DirectoryService) WorkersByProfession(ctx context.Context, profession string) ([]WorkerCard, error) {
	prof := models.Profession(strings.ToLower(strings.TrimSpace(profession)))
	if !prof.Valid() {
		return nil, validationError("unknown profession %q", profession)
	}

	db := s.db.WithContext(ctx)
	var workers []models.User
	if err := db.Preload("WorkerProfile").
		Joins("JOIN worker_profiles ON worker_profiles.user_id = users.id").
		Where("users.role = ? AND users.is_active = ? AND worker_profiles.profession = ?", models.RoleWorker, true, prof).
		Order("users.full_name").
		Find(&workers).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(workers))
	for i, w := range workers {
		ids[i] = w.ID
	}
	stats, err := WorkerStats(db, ids)
	if err != nil {
		return nil, err
	}

	cards := make([]WorkerCard, len(workers))
	for i, w := range workers {
		cards[i] = WorkerCard{Worker: w, Stats: stats[w.ID]}
	}
	return cards, nil
}

type WorkerProfileView struct {
	Worker   models.User
	Stats    Stats
	Calendar []models.WorkerAvailability
	Reviews  []models.Review
}

const profileReviewLimit = 20

// WorkerDetail is the public profile page: stats, this month's calendar and
// recent reviews.
func (s *DirectoryService) WorkerDetail(ctx context.Context, workerID uuid.UUID) (*WorkerProfileView, error) {
	db := s.db.WithContext(ctx)
	worker, err := findActiveWorker(db, workerID)
	if err != nil {
		return nil, err
	}

	stats, err := WorkerStats(db, []uuid.UUID{worker.ID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	calendar, err := s.availability.MonthCalendar(ctx, worker.ID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	reviews, err := reviewsFor(db, worker.ID, profileReviewLimit)
	if err != nil {
		return nil, err
	}

	return &WorkerProfileView{
		Worker:   *worker,
		Stats:    stats[worker.ID],
		Calendar: calendar,
		Reviews:  reviews,
	}, nil
}
