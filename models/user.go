package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleClient = "client"
	RoleWorker = "worker"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Email    string    `gorm:"uniqueIndex;not null"`
	Password string    `gorm:"not null"`
	FullName string
	Phone    string

	Role       string `gorm:"type:varchar(10);not null;default:'client'"` // 'client' or 'worker'
	Location   string
	ProfilePic string // media store URL

	IsActive bool `gorm:"default:true"`

	WorkerProfile *WorkerProfile `gorm:"foreignKey:UserID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// DisplayName falls back to the email when no name was given.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

type Profession string

const (
	ProfessionHandyman Profession = "handyman"
	ProfessionCleaning Profession = "cleaning"
	ProfessionMoving   Profession = "moving"
	ProfessionHomecare Profession = "homecare"
)

// Professions lists every profession in display order.
var Professions = []Profession{
	ProfessionHandyman,
	ProfessionCleaning,
	ProfessionMoving,
	ProfessionHomecare,
}

var professionLabels = map[Profession]string{
	ProfessionHandyman: "Handyman",
	ProfessionCleaning: "Cleaning",
	ProfessionMoving:   "Moving",
	ProfessionHomecare: "Home Care",
}

func (p Profession) Valid() bool {
	_, ok := professionLabels[p]
	return ok
}

func (p Profession) Label() string {
	if l, ok := professionLabels[p]; ok {
		return l
	}
	return string(p)
}

// WorkerProfile carries no rating or job counters; those are computed from
// the review and job tables on read.
type WorkerProfile struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	UserID          uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Profession      Profession      `gorm:"type:varchar(20);index;not null"`
	HourlyRate      decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Skills          []string        `gorm:"serializer:json"`
	ExperienceYears int             `gorm:"not null;default:0"`
	IsApproved      bool            `gorm:"default:false"`

	CreatedAt time.Time
}

func (p *WorkerProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
