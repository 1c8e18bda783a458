package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

var (
	DefaultMonthlyDailyQuota  = decimal.NewFromFloat(2.0)
	DefaultMonthlyHourlyQuota = decimal.NewFromFloat(4.0)
)

type Employee struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatID     int64     `gorm:"uniqueIndex;not null"`
	FullName   string    `gorm:"type:varchar(120);not null"`
	Department string    `gorm:"type:varchar(80)"`
	IsManager  bool      `gorm:"not null;default:false"`
	Status     string    `gorm:"type:varchar(20);not null;default:'pending';index"`

	DailyBalance       decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	HourlyBalance      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	MonthlyDailyQuota  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:2.0"`
	MonthlyHourlyQuota decimal.Decimal `gorm:"type:numeric(10,2);not null;default:4.0"`

	// "2006-01" marker stamped by the renewal sweep so a second firing on the
	// same day cannot grant twice.
	LastGrantedMonth string `gorm:"type:varchar(7)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
