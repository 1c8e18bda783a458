package events

import "time"

const LeaveLifecycleTopic = "leave.request.lifecycle.v1"

const (
	LeaveSubmitted           = "leave_submitted"
	LeaveApproved            = "leave_approved"
	LeaveRejected            = "leave_rejected"
	LeaveReplacementResolved = "leave_replacement_resolved"
	LeaveDeleted             = "leave_deleted"
)

type LeaveLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
