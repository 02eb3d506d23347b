package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homeserve-backend/models"
	"homeserve-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultServiceCharge is the fixed platform fee added to every invoice.
var DefaultServiceCharge = decimal.RequireFromString("10.00")

// BookingService runs the job lifecycle:
//
//	pending -> started -> completed
//	pending -> cancelled
//
// Every transition is a conditional update on the expected prior status,
// so concurrent callers cannot both win.
type BookingService struct {
	db            *gorm.DB
	now           func() time.Time
	notify        *Dispatcher
	serviceCharge decimal.Decimal
}

func NewBookingService(db *gorm.DB, notify *Dispatcher, serviceCharge decimal.Decimal) *BookingService {
	if serviceCharge.IsNegative() {
		serviceCharge = DefaultServiceCharge
	}
	return &BookingService{db: db, now: time.Now, notify: notify, serviceCharge: serviceCharge.Round(2)}
}

type RequestBookingInput struct {
	WorkerID uuid.UUID `validate:"required"`
	Date     string    `validate:"required"`
	Time     string    `validate:"required"`
	Address  string    `validate:"required"`
	Notes    string
}

// RequestBooking creates a pending job. The worker's calendar is not
// touched until the worker accepts.
func (s *BookingService) RequestBooking(ctx context.Context, p Principal, in RequestBookingInput) (*models.Job, error) {
	job, err := s.requestBooking(ctx, p, in)
	if err != nil {
		observeRefusal(err)
		return nil, err
	}
	bookingTransitions.WithLabelValues("requested").Inc()
	s.notify.Dispatch(job.Worker.Phone, fmt.Sprintf("New booking request from %s for %s at %s.",
		p.Name, utils.DisplayDate(job.Date), utils.DisplayTime(job.Time)))
	return job, nil
}

func (s *BookingService) requestBooking(ctx context.Context, p Principal, in RequestBookingInput) (*models.Job, error) {
	if err := Authorize(p, CapRequestBooking).Err(); err != nil {
		return nil, err
	}
	in.Address = strings.TrimSpace(in.Address)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	slot, err := parseSlotTime(in.Time)
	if err != nil {
		return nil, err
	}
	if date < s.now().Format(utils.DateLayout) {
		return nil, validationError("date %s is in the past", date)
	}

	var job models.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		worker, err := findActiveWorker(tx, in.WorkerID)
		if err != nil {
			return err
		}

		free, err := isDateFree(tx, worker.ID, date)
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotUnavailable
		}

		var n int64
		if err := tx.Model(&models.Job{}).
			Where("worker_id = ? AND date = ? AND time = ? AND status = ?", worker.ID, date, slot, models.JobStarted).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrSlotUnavailable
		}

		if err := tx.Model(&models.Job{}).
			Where("client_id = ? AND worker_id = ? AND status IN ?", p.ID, worker.ID, models.ActiveJobStatuses).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateBooking
		}

		job = models.Job{
			WorkerID:    worker.ID,
			ClientID:    p.ID,
			ServiceName: worker.WorkerProfile.Profession.Label(),
			Date:        date,
			Time:        slot,
			Address:     in.Address,
			Notes:       strings.TrimSpace(in.Notes),
			Status:      models.JobPending,
			CreatedAt:   s.now(),
		}
		if err := tx.Omit(clause.Associations).Create(&job).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateBooking
			}
			return err
		}
		job.Worker = *worker
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// AcceptBooking moves a pending job to started and marks the date as a
// job day. A second accept on the same job fails.
func (s *BookingService) AcceptBooking(ctx context.Context, p Principal, jobID uuid.UUID) (*models.Job, error) {
	if err := Authorize(p, CapManageJobs).Err(); err != nil {
		return nil, err
	}

	var job models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Client").Where("id = ? AND worker_id = ?", jobID, p.ID).First(&job).Error
		if isNotFound(err) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}
		if job.Status != models.JobPending {
			return ErrAlreadyProcessed
		}

		var n int64
		if err := tx.Model(&models.Job{}).
			Where("worker_id = ? AND date = ? AND time = ? AND status = ?", job.WorkerID, job.Date, job.Time, models.JobStarted).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrSlotUnavailable
		}

		now := s.now()
		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, models.JobPending).
			Updates(map[string]any{"status": models.JobStarted, "started_at": now})
		if res.Error != nil {
			if isDuplicateKey(res.Error) {
				return ErrSlotUnavailable
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}
		job.Status = models.JobStarted
		job.StartedAt = &now

		return markDateJob(tx, job.WorkerID, job.Date)
	})
	if err != nil {
		observeRefusal(err)
		return nil, err
	}

	bookingTransitions.WithLabelValues("accepted").Inc()
	s.notify.Dispatch(job.Client.Phone, fmt.Sprintf("Your booking for %s at %s was confirmed.",
		utils.DisplayDate(job.Date), utils.DisplayTime(job.Time)))
	return &job, nil
}

// RejectBooking cancels a pending job on the worker's side.
func (s *BookingService) RejectBooking(ctx context.Context, p Principal, jobID uuid.UUID) (*models.Job, error) {
	if err := Authorize(p, CapManageJobs).Err(); err != nil {
		return nil, err
	}
	job, err := s.cancelPending(ctx, jobID, "worker_id", p.ID)
	if err != nil {
		observeRefusal(err)
		return nil, err
	}
	bookingTransitions.WithLabelValues("rejected").Inc()
	s.notify.Dispatch(job.Client.Phone, fmt.Sprintf("Your booking request for %s was declined.",
		utils.DisplayDate(job.Date)))
	return job, nil
}

// CancelBooking withdraws the client's own pending request.
func (s *BookingService) CancelBooking(ctx context.Context, p Principal, jobID uuid.UUID) (*models.Job, error) {
	if err := Authorize(p, CapRequestBooking).Err(); err != nil {
		return nil, err
	}
	job, err := s.cancelPending(ctx, jobID, "client_id", p.ID)
	if err != nil {
		observeRefusal(err)
		return nil, err
	}
	bookingTransitions.WithLabelValues("cancelled").Inc()
	s.notify.Dispatch(job.Worker.Phone, fmt.Sprintf("A booking request for %s was withdrawn.",
		utils.DisplayDate(job.Date)))
	return job, nil
}

func (s *BookingService) cancelPending(ctx context.Context, jobID uuid.UUID, ownerColumn string, ownerID uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Job{}).
			Where("id = ? AND "+ownerColumn+" = ? AND status = ?", jobID, ownerID, models.JobPending).
			Updates(map[string]any{"status": models.JobCancelled, "cancelled_at": s.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return classifyMiss(tx, jobID, ownerColumn, ownerID)
		}

		if err := tx.Preload("Client").Preload("Worker").First(&job, "id = ?", jobID).Error; err != nil {
			return err
		}
		return releaseDate(tx, job.WorkerID, job.Date)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

type MaterialInput struct {
	Name string
	// Cost is the raw value as sent; malformed costs count as zero.
	Cost string
}

type CounterReviewInput struct {
	Rating  int
	Comment string
	Photos  []string
}

type CompleteBookingInput struct {
	HoursWorked string
	Materials   []MaterialInput
	Review      *CounterReviewInput
}

type CompletionResult struct {
	Job         *models.Job
	Invoice     *models.Invoice
	ReviewGiven bool
}

// CompleteBooking closes a started job. The invoice, the status change and
// the optional review of the client commit together.
func (s *BookingService) CompleteBooking(ctx context.Context, p Principal, jobID uuid.UUID, in CompleteBookingInput) (*CompletionResult, error) {
	if err := Authorize(p, CapManageJobs).Err(); err != nil {
		return nil, err
	}
	hours, err := ParseHours(in.HoursWorked)
	if err != nil {
		return nil, err
	}
	if in.Review != nil {
		if err := validateRating(in.Review.Rating); err != nil {
			return nil, err
		}
		if err := validatePhotos(in.Review.Photos); err != nil {
			return nil, err
		}
	}

	result := &CompletionResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		err := tx.Preload("Client").Preload("Worker.WorkerProfile").
			Where("id = ? AND worker_id = ? AND status = ?", jobID, p.ID, models.JobStarted).
			First(&job).Error
		if isNotFound(err) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}
		if job.Worker.WorkerProfile == nil {
			return ErrWorkerNotFound
		}

		now := s.now()
		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, models.JobStarted).
			Updates(map[string]any{"status": models.JobCompleted, "completed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrJobNotFound
		}
		job.Status = models.JobCompleted
		job.CompletedAt = &now

		invoice := GenerateInvoice(job.ID, hours, job.Worker.WorkerProfile.HourlyRate, in.Materials, s.serviceCharge, now)
		if invoice.Total.GreaterThan(maxInvoiceTotal) {
			return validationError("invoice total cannot exceed %s", maxInvoiceTotal)
		}
		if err := tx.Create(invoice).Error; err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if in.Review != nil {
			review := models.Review{
				ReviewerID: p.ID,
				RevieweeID: job.ClientID,
				JobID:      job.ID,
				Rating:     in.Review.Rating,
				Comment:    strings.TrimSpace(in.Review.Comment),
				Photos:     in.Review.Photos,
				CreatedAt:  now,
			}
			if err := insertReview(tx, &review); err != nil {
				return err
			}
			result.ReviewGiven = true
		}

		job.Invoice = invoice
		result.Job = &job
		result.Invoice = invoice
		return nil
	})
	if err != nil {
		observeRefusal(err)
		return nil, err
	}

	bookingTransitions.WithLabelValues("completed").Inc()
	if result.ReviewGiven {
		reviewsTotal.WithLabelValues(string(RoleWorker)).Inc()
	}
	s.notify.Dispatch(result.Job.Client.Phone, fmt.Sprintf("Your invoice for %s is ready: %s.",
		result.Job.ServiceName, utils.FormatMoney(result.Invoice.Total)))
	return result, nil
}

// classifyMiss explains a conditional update that matched no row: the
// caller's job exists but is in another status, or it is not theirs at all.
func classifyMiss(tx *gorm.DB, jobID uuid.UUID, ownerColumn string, ownerID uuid.UUID) error {
	var n int64
	if err := tx.Model(&models.Job{}).
		Where("id = ? AND "+ownerColumn+" = ?", jobID, ownerID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return ErrAlreadyProcessed
}

// JobBoard groups a participant's jobs by lifecycle stage.
type JobBoard struct {
	Pending   []models.Job
	Started   []models.Job
	Completed []models.Job
}

// WorkerJobs is the worker's new / in progress / completed board.
func (s *BookingService) WorkerJobs(ctx context.Context, p Principal) (*JobBoard, error) {
	if err := Authorize(p, CapManageJobs).Err(); err != nil {
		return nil, err
	}
	return s.board(ctx, "worker_id", p.ID, "Client")
}

// ClientBookings is the client's pending / upcoming / completed board.
func (s *BookingService) ClientBookings(ctx context.Context, p Principal) (*JobBoard, error) {
	if err := Authorize(p, CapRequestBooking).Err(); err != nil {
		return nil, err
	}
	return s.board(ctx, "client_id", p.ID, "Worker.WorkerProfile")
}

func (s *BookingService) board(ctx context.Context, ownerColumn string, ownerID uuid.UUID, preload string) (*JobBoard, error) {
	var jobs []models.Job
	if err := s.db.WithContext(ctx).Preload(preload).
		Where(ownerColumn+" = ? AND status <> ?", ownerID, models.JobCancelled).
		Order("date DESC, time DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}

	board := &JobBoard{Pending: []models.Job{}, Started: []models.Job{}, Completed: []models.Job{}}
	for _, j := range jobs {
		switch j.Status {
		case models.JobPending:
			board.Pending = append(board.Pending, j)
		case models.JobStarted:
			board.Started = append(board.Started, j)
		case models.JobCompleted:
			board.Completed = append(board.Completed, j)
		}
	}
	return board, nil
}

// TodayJob returns the worker's earliest open job today, or nil.
func (s *BookingService) TodayJob(ctx context.Context, p Principal) (*models.Job, error) {
	if err := Authorize(p, CapManageJobs).Err(); err != nil {
		return nil, err
	}
	var job models.Job
	err := s.db.WithContext(ctx).Preload("Client").
		Where("worker_id = ? AND date = ? AND status IN ?", p.ID, s.now().Format(utils.DateLayout), models.ActiveJobStatuses).
		Order("time").
		First(&job).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// JobForInvoice returns a started job with the worker's current rate,
// as shown on the invoice form before completion.
func (s *BookingService) JobForInvoice(ctx context.Context, p Principal, jobID uuid.UUID) (*models.Job, error) {
	if err := Authorize(p, CapManageJobs).Err(); err != nil {
		return nil, err
	}
	var job models.Job
	err := s.db.WithContext(ctx).Preload("Client").Preload("Worker.WorkerProfile").
		Where("id = ? AND worker_id = ? AND status = ?", jobID, p.ID, models.JobStarted).
		First(&job).Error
	if isNotFound(err) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}
