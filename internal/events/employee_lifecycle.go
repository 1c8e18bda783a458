package events

import "time"

const EmployeeLifecycleTopic = "leave.employee.lifecycle.v1"

const (
	EmployeeRegistered = "employee_registered"
	EmployeeApproved   = "employee_approved"
	EmployeeRemoved    = "employee_removed"
)

type EmployeeLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID string    `json:"employee_id"`
	ChatID     int64     `json:"chat_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
