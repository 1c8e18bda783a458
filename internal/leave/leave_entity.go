package leave

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindDaily  = "daily"
	KindHourly = "hourly"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	ReplacementPending     = "pending"
	ReplacementAccepted    = "accepted"
	ReplacementRejected    = "rejected"
	ReplacementNotRequired = "not_required"
)

// LeaveRequest holds non-owning id references to employees; callers resolve
// them through the employee repository. StartTime/EndTime are HH:MM strings
// and only set for hourly requests. For hourly requests EndDate always equals
// StartDate.
type LeaveRequest struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"employee_id"`
	Kind              string     `gorm:"type:varchar(10);not null" json:"kind"`
	StartDate         time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate           time.Time  `gorm:"type:date;not null" json:"end_date"`
	StartTime         string     `gorm:"type:varchar(5)" json:"start_time"`
	EndTime           string     `gorm:"type:varchar(5)" json:"end_time"`
	Reason            string     `gorm:"type:text" json:"reason"`
	Status            string     `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	ReplacementID     *uuid.UUID `gorm:"type:uuid" json:"replacement_id"`
	ReplacementStatus string     `gorm:"type:varchar(15);not null;default:'not_required'" json:"replacement_status"`
	ApprovedBy        string     `gorm:"type:varchar(255)" json:"approved_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
