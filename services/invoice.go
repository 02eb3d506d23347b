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
)

const transactionRefLength = 10

// DefaultMaterialName labels material items sent without a name.
const DefaultMaterialName = "Item"

// GenerateInvoice builds the invoice for a finished job. Every material
// item is billed; malformed costs count as zero.
func GenerateInvoice(jobID uuid.UUID, hours, rate decimal.Decimal, materials []MaterialInput, serviceCharge decimal.Decimal, sentAt time.Time) *models.Invoice {
	items := make([]models.Material, 0, len(materials))
	for _, m := range materials {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			name = DefaultMaterialName
		}
		items = append(items, models.Material{Name: name, Cost: ParseMaterialCost(m.Cost)})
	}

	inv := &models.Invoice{
		JobID:         jobID,
		HoursWorked:   hours,
		HourlyRate:    rate,
		Materials:     items,
		ServiceCharge: serviceCharge,
		SentAt:        sentAt,
	}
	inv.Recompute()
	return inv
}

type InvoiceService struct {
	db     *gorm.DB
	now    func() time.Time
	newRef func() string
	notify *Dispatcher
}

func NewInvoiceService(db *gorm.DB, notify *Dispatcher) *InvoiceService {
	return &InvoiceService{db: db, now: time.Now, newRef: newTransactionRef, notify: notify}
}

func newTransactionRef() string {
	return "TXN-" + utils.GenerateRandomString(transactionRefLength)
}

// paymentAttempts bounds retries when a generated transaction reference
// is already taken.
const paymentAttempts = 2

// GetInvoice returns a completed job with its invoice. Only the two
// participants may see it.
func (s *InvoiceService) GetInvoice(ctx context.Context, p Principal, jobID uuid.UUID) (*models.Job, error) {
	if err := Authorize(p, CapViewInvoice).Err(); err != nil {
		return nil, err
	}
	var job models.Job
	err := s.db.WithContext(ctx).
		Preload("Invoice").Preload("Client").Preload("Worker.WorkerProfile").
		Where("id = ? AND status = ?", jobID, models.JobCompleted).
		First(&job).Error
	if isNotFound(err) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	if !job.Involves(p.ID) || job.Invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return &job, nil
}

// MarkPaid records payment of a completed job by its client. Each job is
// paid at most once and gets a fresh transaction reference.
func (s *InvoiceService) MarkPaid(ctx context.Context, p Principal, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.markPaid(ctx, p, jobID)
	if err != nil {
		observeRefusal(err)
		return nil, err
	}
	paymentsTotal.Inc()
	s.notify.Dispatch(job.Worker.Phone, fmt.Sprintf("%s paid for %s (%s).",
		p.Name, job.ServiceName, *job.TransactionRef))
	return job, nil
}

func (s *InvoiceService) markPaid(ctx context.Context, p Principal, jobID uuid.UUID) (*models.Job, error) {
	if err := Authorize(p, CapPayInvoice).Err(); err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		job, err := s.payOnce(ctx, p, jobID, s.newRef())
		if err == nil || !isDuplicateKey(err) {
			return job, err
		}
		if attempt == paymentAttempts {
			return nil, ErrPaymentConflict
		}
	}
}

func (s *InvoiceService) payOnce(ctx context.Context, p Principal, jobID uuid.UUID, ref string) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Job{}).
			Where("id = ? AND client_id = ? AND status = ? AND is_paid = ?", jobID, p.ID, models.JobCompleted, false).
			Updates(map[string]any{"is_paid": true, "paid_at": s.now(), "transaction_ref": ref})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing models.Job
			err := tx.Where("id = ? AND client_id = ? AND status = ?", jobID, p.ID, models.JobCompleted).
				First(&existing).Error
			if isNotFound(err) {
				return ErrJobNotFound
			}
			if err != nil {
				return err
			}
			return ErrAlreadyPaid
		}
		return tx.Preload("Invoice").Preload("Worker").First(&job, "id = ?", jobID).Error
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

type EarningsSummary struct {
	Today     decimal.Decimal
	ThisWeek  decimal.Decimal
	ThisMonth decimal.Decimal
	Total     decimal.Decimal

	// Outstanding is owed on completed jobs the client has not paid yet.
	Outstanding decimal.Decimal
	JobsPaid    int
}

// WorkerEarnings sums what the worker keeps from completed jobs. Paid
// amounts are bucketed by completion time.
func (s *InvoiceService) WorkerEarnings(ctx context.Context, p Principal) (*EarningsSummary, error) {
	if err := Authorize(p, CapManageJobs).Err(); err != nil {
		return nil, err
	}
	var jobs []models.Job
	if err := s.db.WithContext(ctx).Preload("Invoice").
		Where("worker_id = ? AND status = ?", p.ID, models.JobCompleted).
		Find(&jobs).Error; err != nil {
		return nil, err
	}

	now := s.now()
	today := utils.BeginningOfDay(now)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	sum := &EarningsSummary{
		Today:       decimal.Zero,
		ThisWeek:    decimal.Zero,
		ThisMonth:   decimal.Zero,
		Total:       decimal.Zero,
		Outstanding: decimal.Zero,
	}
	for _, j := range jobs {
		if j.Invoice == nil {
			continue
		}
		earned := j.Invoice.Earnings()
		if !j.IsPaid {
			sum.Outstanding = sum.Outstanding.Add(earned)
			continue
		}
		sum.Total = sum.Total.Add(earned)
		sum.JobsPaid++
		if j.CompletedAt == nil {
			continue
		}
		done := *j.CompletedAt
		if !done.Before(today) {
			sum.Today = sum.Today.Add(earned)
		}
		if !done.Before(weekStart) {
			sum.ThisWeek = sum.ThisWeek.Add(earned)
		}
		if !done.Before(monthStart) {
			sum.ThisMonth = sum.ThisMonth.Add(earned)
		}
	}
	return sum, nil
}
