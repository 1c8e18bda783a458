package app

import (
	"leavedesk/internal/employee"
	"leavedesk/internal/holiday"
	"leavedesk/internal/leave"

	"gorm.io/gorm"
)

// The outbox and notification queues are plain-SQL repositories, so their
// tables are created here rather than through AutoMigrate. The FK statements
// implement the deletion policy: removing an employee takes their own
// requests with them, while requests merely naming them as replacement are
// kept with the reference cleared.
var rawDDL = []string{
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		request_id TEXT,
		aggregate_type TEXT NOT NULL,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		topic TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL,
		retry_count INT NOT NULL DEFAULT 0,
		error_message TEXT,
		next_retry_at TIMESTAMPTZ,
		processed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_status_created
		ON outbox_events (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		recipient_chat_id BIGINT NOT NULL,
		body TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		processed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_status_created
		ON notifications (status, created_at)`,
	`DO $$ BEGIN
		ALTER TABLE leave_requests
			ADD CONSTRAINT fk_leave_requests_employee
			FOREIGN KEY (employee_id) REFERENCES employees (id) ON DELETE CASCADE;
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	`DO $$ BEGIN
		ALTER TABLE leave_requests
			ADD CONSTRAINT fk_leave_requests_replacement
			FOREIGN KEY (replacement_id) REFERENCES employees (id) ON DELETE SET NULL;
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
}

func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&employee.Employee{},
		&leave.LeaveRequest{},
		&holiday.Holiday{},
	); err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	for _, stmt := range rawDDL {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
