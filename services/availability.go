package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"homeserve-backend/models"
	"homeserve-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultHorizonDays = 60

type AvailabilityService struct {
	db          *gorm.DB
	now         func() time.Time
	horizonDays int
}

func NewAvailabilityService(db *gorm.DB, horizonDays int) *AvailabilityService {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &AvailabilityService{db: db, now: time.Now, horizonDays: horizonDays}
}

type SetAvailabilityInput struct {
	Dates  []string `validate:"required,min=1,dive,required"`
	Status string   `validate:"required,oneof=free booked"`
}

type SetAvailabilityResult struct {
	Status  models.AvailabilityStatus
	Updated []string
	// Skipped dates already hold a confirmed job and were left unchanged.
	Skipped []string
}

// SetAvailability upserts the status for each date. Applying the same input
// twice yields the same calendar.
func (s *AvailabilityService) SetAvailability(ctx context.Context, p Principal, in SetAvailabilityInput) (*SetAvailabilityResult, error) {
	if err := Authorize(p, CapManageAvailability).Err(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	dates, err := normalizeDates(in.Dates)
	if err != nil {
		return nil, err
	}
	status := models.AvailabilityStatus(in.Status)
	result := &SetAvailabilityResult{Status: status}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []string
		if err := tx.Model(&models.WorkerAvailability{}).
			Where("worker_id = ? AND date IN ? AND status = ?", p.ID, dates, models.AvailabilityJob).
			Pluck("date", &locked).Error; err != nil {
			return err
		}
		skip := make(map[string]bool, len(locked))
		for _, d := range locked {
			skip[d] = true
		}

		rows := make([]models.WorkerAvailability, 0, len(dates))
		for _, d := range dates {
			if skip[d] {
				result.Skipped = append(result.Skipped, d)
				continue
			}
			rows = append(rows, models.WorkerAvailability{WorkerID: p.ID, Date: d, Status: status})
			result.Updated = append(result.Updated, d)
		}
		if len(rows) == 0 {
			return nil
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "worker_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Neq{Column: clause.Column{Table: "worker_availabilities", Name: "status"}, Value: models.AvailabilityJob},
			}},
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MonthCalendar returns every availability row the worker has in a month.
func (s *AvailabilityService) MonthCalendar(ctx context.Context, workerID uuid.UUID, year int, month time.Month) ([]models.WorkerAvailability, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var rows []models.WorkerAvailability
	err := s.db.WithContext(ctx).
		Where("worker_id = ? AND date >= ? AND date <= ?", workerID,
			first.Format(utils.DateLayout), last.Format(utils.DateLayout)).
		Order("date").
		Find(&rows).Error
	return rows, err
}

// ListFreeDates returns the worker's free dates in [from, to].
func (s *AvailabilityService) ListFreeDates(ctx context.Context, workerID uuid.UUID, from, to time.Time) ([]string, error) {
	if to.Before(from) {
		return nil, validationError("window end before start")
	}
	db := s.db.WithContext(ctx)
	if _, err := findActiveWorker(db, workerID); err != nil {
		return nil, err
	}

	dates := []string{}
	err := db.Model(&models.WorkerAvailability{}).
		Where("worker_id = ? AND status = ? AND date >= ? AND date <= ?", workerID, models.AvailabilityFree,
			from.Format(utils.DateLayout), to.Format(utils.DateLayout)).
		Order("date").
		Pluck("date", &dates).Error
	return dates, err
}

// FreeDatesAhead lists free dates from today through the booking horizon.
func (s *AvailabilityService) FreeDatesAhead(ctx context.Context, workerID uuid.UUID) ([]string, error) {
	today := utils.BeginningOfDay(s.now())
	return s.ListFreeDates(ctx, workerID, today, today.AddDate(0, 0, s.horizonDays))
}

type TimeSlot struct {
	Time      string `json:"time"`
	Display   string `json:"display"`
	Available bool   `json:"available"`
}

type DaySlots struct {
	Date          string     `json:"date"`
	DateAvailable bool       `json:"dateAvailable"`
	Slots         []TimeSlot `json:"slots"`
}

// ListTimeSlots returns the 12 hourly slots for a date. A slot is taken when
// a pending, started or completed job holds it; every slot is taken when the
// date itself is not free.
func (s *AvailabilityService) ListTimeSlots(ctx context.Context, workerID uuid.UUID, date string) (*DaySlots, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if _, err := findActiveWorker(db, workerID); err != nil {
		return nil, err
	}

	dateFree, err := isDateFree(db, workerID, day)
	if err != nil {
		return nil, err
	}

	var taken []string
	if err := db.Model(&models.Job{}).
		Where("worker_id = ? AND date = ? AND status <> ?", workerID, day, models.JobCancelled).
		Pluck("time", &taken).Error; err != nil {
		return nil, err
	}
	occupied := make(map[string]bool, len(taken))
	for _, t := range taken {
		occupied[t] = true
	}

	out := &DaySlots{Date: day, DateAvailable: dateFree}
	for _, t := range utils.SlotTimes() {
		out.Slots = append(out.Slots, TimeSlot{
			Time:      t,
			Display:   utils.DisplayTime(t),
			Available: dateFree && !occupied[t],
		})
	}
	return out, nil
}

func isDateFree(db *gorm.DB, workerID uuid.UUID, date string) (bool, error) {
	var n int64
	err := db.Model(&models.WorkerAvailability{}).
		Where("worker_id = ? AND date = ? AND status = ?", workerID, date, models.AvailabilityFree).
		Count(&n).Error
	return n > 0, err
}

// markDateJob records a confirmed job on the worker's calendar.
func markDateJob(tx *gorm.DB, workerID uuid.UUID, date string) error {
	row := models.WorkerAvailability{WorkerID: workerID, Date: date, Status: models.AvailabilityJob}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&row).Error
}

// releaseDate frees the date unless another job is still started on it.
func releaseDate(tx *gorm.DB, workerID uuid.UUID, date string) error {
	var started int64
	if err := tx.Model(&models.Job{}).
		Where("worker_id = ? AND date = ? AND status = ?", workerID, date, models.JobStarted).
		Count(&started).Error; err != nil {
		return err
	}
	if started > 0 {
		return nil
	}
	return tx.Model(&models.WorkerAvailability{}).
		Where("worker_id = ? AND date = ?", workerID, date).
		Updates(map[string]any{"status": models.AvailabilityFree, "updated_at": time.Now()}).Error
}

func normalizeDates(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		d, err := parseDate(r)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

// findActiveWorker loads an active worker with a profile.
func findActiveWorker(db *gorm.DB, workerID uuid.UUID) (*models.User, error) {
	var worker models.User
	err := db.Preload("WorkerProfile").
		Where("id = ? AND role = ? AND is_active = ?", workerID, models.RoleWorker, true).
		First(&worker).Error
	if isNotFound(err) {
		return nil, ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load worker: %w", err)
	}
	if worker.WorkerProfile == nil {
		return nil, ErrWorkerNotFound
	}
	return &worker, nil
}
