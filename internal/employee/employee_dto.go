package employee

type CreateEmployeeRequest struct {
	ChatID     int64  `json:"chat_id" binding:"required"`
	FullName   string `json:"full_name" binding:"required"`
	Department string `json:"department"`
	IsManager  bool   `json:"is_manager"`
}

type UpdateEmployeeRequest struct {
	FullName      string  `json:"full_name" binding:"required"`
	Department    string  `json:"department"`
	IsManager     bool    `json:"is_manager"`
	DailyBalance  float64 `json:"daily_balance" binding:"gte=0"`
	HourlyBalance float64 `json:"hourly_balance" binding:"gte=0"`
}

type EmployeeResponse struct {
	ID                 string `json:"id"`
	ChatID             int64  `json:"chat_id"`
	FullName           string `json:"full_name"`
	Department         string `json:"department"`
	IsManager          bool   `json:"is_manager"`
	Status             string `json:"status"`
	DailyBalance       string `json:"daily_balance"`
	HourlyBalance      string `json:"hourly_balance"`
	MonthlyDailyQuota  string `json:"monthly_daily_quota"`
	MonthlyHourlyQuota string `json:"monthly_hourly_quota"`
	LastGrantedMonth   string `json:"last_granted_month,omitempty"`
}
