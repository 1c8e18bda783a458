package leave

type SubmitLeaveRequest struct {
	EmployeeID    string `json:"employee_id" binding:"required,uuid"`
	Kind          string `json:"kind" binding:"required,oneof=daily hourly"`
	StartDate     string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	StartTime     string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime       string `json:"end_time" binding:"omitempty,datetime=15:04"`
	Reason        string `json:"reason"`
	ReplacementID string `json:"replacement_id" binding:"omitempty,uuid"`
}

type EditLeaveRequest struct {
	Kind      string `json:"kind" binding:"required,oneof=daily hourly"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time" binding:"omitempty,datetime=15:04"`
	Reason    string `json:"reason"`
}

type BulkDeleteLeaveRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// AdminCreateLeaveRequest is the console's direct-entry form: the request is
// recorded already approved and the balance deducted in the same step.
type AdminCreateLeaveRequest struct {
	EmployeeID    string `json:"employee_id" binding:"required,uuid"`
	Kind          string `json:"kind" binding:"required,oneof=daily hourly"`
	StartDate     string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	StartTime     string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime       string `json:"end_time" binding:"omitempty,datetime=15:04"`
	Reason        string `json:"reason"`
	IgnoreBalance bool   `json:"ignore_balance"`
}

type LeaveResponse struct {
	ID                string `json:"id"`
	EmployeeID        string `json:"employee_id"`
	Kind              string `json:"kind"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	StartTime         string `json:"start_time,omitempty"`
	EndTime           string `json:"end_time,omitempty"`
	Reason            string `json:"reason"`
	Status            string `json:"status"`
	ReplacementID     string `json:"replacement_id,omitempty"`
	ReplacementStatus string `json:"replacement_status"`
	ApprovedBy        string `json:"approved_by,omitempty"`
	CreatedAt         string `json:"created_at"`
}
