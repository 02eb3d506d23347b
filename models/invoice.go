package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Material struct {
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

// Invoice is the bill for one completed job. HourlyRate is a snapshot of
// the worker's rate at completion. Labor, MaterialsTotal and Total are
// derived and recomputed on every save.
type Invoice struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	JobID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	HoursWorked   decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	HourlyRate    decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Materials     []Material      `gorm:"serializer:json"`
	ServiceCharge decimal.Decimal `gorm:"type:decimal(8,2);not null"`

	Labor          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MaterialsTotal decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	SentAt    time.Time
	CreatedAt time.Time
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (i *Invoice) BeforeSave(tx *gorm.DB) (err error) {
	i.Recompute()
	return
}

// Recompute sets the derived fields from the invoice inputs. Labor is
// rounded to cents so the stored total matches its stored parts.
func (i *Invoice) Recompute() {
	i.Labor = i.HoursWorked.Mul(i.HourlyRate).Round(2)
	sum := decimal.Zero
	for _, m := range i.Materials {
		sum = sum.Add(m.Cost)
	}
	i.MaterialsTotal = sum.Round(2)
	i.Total = i.Labor.Add(i.MaterialsTotal).Add(i.ServiceCharge)
}

// Earnings is what the worker keeps after the platform service charge.
func (i *Invoice) Earnings() decimal.Decimal {
	return i.Total.Sub(i.ServiceCharge)
}
