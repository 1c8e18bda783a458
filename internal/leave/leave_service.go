package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leavedesk/internal/employee"
	"leavedesk/internal/events"
	"leavedesk/internal/holiday"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/notification"
	"leavedesk/internal/shared/apperror"
	"leavedesk/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveResponse, error)
	ResolveReplacement(ctx context.Context, id string, accept bool) (LeaveResponse, error)
	Approve(ctx context.Context, id, approverLabel string) (LeaveResponse, error)
	Reject(ctx context.Context, id string) (LeaveResponse, error)
	Edit(ctx context.Context, id string, req EditLeaveRequest) (LeaveResponse, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int, error)
	AdminCreate(ctx context.Context, approverLabel string, req AdminCreateLeaveRequest) (LeaveResponse, error)
	GetForEmployee(ctx context.Context, employeeID string, limit int) ([]LeaveResponse, error)
	ListPendingReview(ctx context.Context) ([]LeaveResponse, error)
	ListAwaitingReplacement(ctx context.Context, replacementID string) ([]LeaveResponse, error)
	GetAll(ctx context.Context, filter ListFilter) ([]LeaveResponse, int64, error)
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	holidays  holiday.Service
	notify    notification.Repository
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	holidayService holiday.Service,
	notifyRepo notification.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employeeRepo,
		holidays:  holidayService,
		notify:    notifyRepo,
		outbox:    outboxRepo,
		logger:    l,
	}
}

// Submit validates and persists a new pending request. With a valid
// replacement nominee the request stays hidden from managers until the
// nominee accepts; otherwise managers are notified right away.
func (s *service) Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveResponse, error) {
	fields, err := parseRequestFields(req.Kind, req.StartDate, req.EndDate, req.StartTime, req.EndTime, true)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qEmployees := s.employees.WithTx(tx)

	requester, err := qEmployees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, apperror.ErrNotFound
		}
		return LeaveResponse{}, err
	}
	if requester.Status != employee.StatusApproved {
		return LeaveResponse{}, apperror.ErrForbidden
	}

	l := &LeaveRequest{
		ID:                uuid.New(),
		EmployeeID:        requester.ID,
		Kind:              fields.kind,
		StartDate:         fields.start,
		EndDate:           fields.end,
		StartTime:         fields.startTime,
		EndTime:           fields.endTime,
		Reason:            req.Reason,
		Status:            StatusPending,
		ReplacementStatus: ReplacementNotRequired,
	}

	var replacement *employee.Employee
	if req.ReplacementID != "" {
		rep, err := qEmployees.FindByID(ctx, req.ReplacementID)
		if err == nil && rep.Status == employee.StatusApproved && rep.ID != requester.ID {
			repID := rep.ID
			l.ReplacementID = &repID
			l.ReplacementStatus = ReplacementPending
			replacement = rep
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, err
		}
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if replacement != nil {
		body := fmt.Sprintf(
			"%s asked you to cover for them during their %s. Please accept or decline.",
			requester.FullName, describe(l),
		)
		if err := s.enqueueOne(ctx, tx, replacement.ChatID, body); err != nil {
			return LeaveResponse{}, err
		}
	} else {
		if err := s.notifyManagers(ctx, tx, qEmployees, requester.FullName, l); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := s.queueEvent(ctx, tx, events.LeaveSubmitted, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("submit leave success",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("leave_id", l.ID.String()),
		zap.String("kind", l.Kind),
		zap.String("replacement_status", l.ReplacementStatus),
	)
	return mapToResponse(*l), nil
}

// ResolveReplacement records the nominee's decision. Accepting hands the
// request to the manager queue; declining rejects the leave outright, there
// is no separate admin step.
func (s *service) ResolveReplacement(ctx context.Context, id string, accept bool) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("resolve replacement begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qEmployees := s.employees.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending || l.ReplacementStatus != ReplacementPending {
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}

	requester, err := qEmployees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, err
	}

	if accept {
		l.ReplacementStatus = ReplacementAccepted
	} else {
		l.ReplacementStatus = ReplacementRejected
		l.Status = StatusRejected
	}
	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("resolve replacement persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if accept {
		body := fmt.Sprintf("Your replacement accepted. Your %s is now awaiting manager review.", describe(l))
		if err := s.enqueueOne(ctx, tx, requester.ChatID, body); err != nil {
			return LeaveResponse{}, err
		}
		if err := s.notifyManagers(ctx, tx, qEmployees, requester.FullName, l); err != nil {
			return LeaveResponse{}, err
		}
	} else {
		body := fmt.Sprintf("Your replacement declined, so your %s was rejected.", describe(l))
		if err := s.enqueueOne(ctx, tx, requester.ChatID, body); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := s.queueEvent(ctx, tx, events.LeaveReplacementResolved, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("resolve replacement commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("resolve replacement success",
		zap.String("leave_id", id),
		zap.Bool("accepted", accept),
	)
	return mapToResponse(*l), nil
}

// Approve deducts the computed quantity and moves the request to approved in
// one transaction. The deduction happens exactly here and nowhere else; a
// second call finds a non-pending request and reports already processed.
func (s *service) Approve(ctx context.Context, id, approverLabel string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qEmployees := s.employees.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}
	if l.ReplacementStatus == ReplacementPending {
		return LeaveResponse{}, leaveerrors.ErrReplacementPending
	}

	requester, err := qEmployees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, err
	}

	quantity, unit, err := s.quantity(ctx, l)
	if err != nil {
		return LeaveResponse{}, err
	}

	if err := deduct(requester, l.Kind, quantity, unit, false); err != nil {
		return LeaveResponse{}, err
	}
	if err := qEmployees.Update(ctx, requester); err != nil {
		s.logger.Error("approve leave balance update failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l.Status = StatusApproved
	l.ApprovedBy = approverLabel
	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("approve leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	body := fmt.Sprintf("Your %s was approved by %s.", describe(l), approverLabel)
	if err := s.enqueueOne(ctx, tx, requester.ChatID, body); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.queueEvent(ctx, tx, events.LeaveApproved, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("approve leave success",
		zap.String("leave_id", id),
		zap.String("approved_by", approverLabel),
		zap.String("deducted", quantity.String()),
		zap.String("unit", unit),
	)
	return mapToResponse(*l), nil
}

func (s *service) Reject(ctx context.Context, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qEmployees := s.employees.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}

	requester, err := qEmployees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, err
	}

	l.Status = StatusRejected
	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("reject leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	body := fmt.Sprintf("Your %s was rejected.", describe(l))
	if err := s.enqueueOne(ctx, tx, requester.ChatID, body); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.queueEvent(ctx, tx, events.LeaveRejected, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("reject leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

// Edit replaces the date, time, kind and reason fields of a pending request
// wholesale. Switching kind clears the other kind's fields. The balance is
// not revalidated; that happens at approval.
func (s *service) Edit(ctx context.Context, id string, req EditLeaveRequest) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	fields, err := parseRequestFields(req.Kind, req.StartDate, req.EndDate, req.StartTime, req.EndTime, false)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("edit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qEmployees := s.employees.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrAlreadyProcessed
	}

	requester, err := qEmployees.FindByID(ctx, l.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, err
	}

	l.Kind = fields.kind
	l.StartDate = fields.start
	l.EndDate = fields.end
	l.StartTime = fields.startTime
	l.EndTime = fields.endTime
	l.Reason = req.Reason

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("edit leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	body := fmt.Sprintf("An admin updated your leave request. It is now: %s.", describe(l))
	if err := s.enqueueOne(ctx, tx, requester.ChatID, body); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("edit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("edit leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

// Delete removes a request in any status and tells the owner. A deduction
// already applied stays applied: the ledger keeps no undo.
func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qEmployees := s.employees.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrLeaveNotFound
		}
		return err
	}

	requester, err := qEmployees.FindByID(ctx, l.EmployeeID.String())
	if err == nil {
		body := fmt.Sprintf("Your %s was deleted by an admin.", describe(l))
		if err := s.enqueueOne(ctx, tx, requester.ChatID, body); err != nil {
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := qtx.Delete(ctx, id); err != nil {
		s.logger.Error("delete leave persist failed", zap.Error(err))
		return err
	}

	if err := s.queueEvent(ctx, tx, events.LeaveDeleted, l); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete leave commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("delete leave success", zap.String("leave_id", id))
	return nil
}

// BulkDelete removes each request through the single-delete path, so every
// deletion keeps its own transaction and owner notification. Requests that
// are already gone are skipped, anything else stops the run.
func (s *service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			if errors.Is(err, leaveerrors.ErrLeaveNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// AdminCreate records a leave that is approved from the start, deducting the
// balance in the same transaction. IgnoreBalance skips the sufficiency check
// and is the only path that may drive a balance negative.
func (s *service) AdminCreate(ctx context.Context, approverLabel string, req AdminCreateLeaveRequest) (LeaveResponse, error) {
	fields, err := parseRequestFields(req.Kind, req.StartDate, req.EndDate, req.StartTime, req.EndTime, false)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("admin create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qEmployees := s.employees.WithTx(tx)

	requester, err := qEmployees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, apperror.ErrNotFound
		}
		return LeaveResponse{}, err
	}

	l := &LeaveRequest{
		ID:                uuid.New(),
		EmployeeID:        requester.ID,
		Kind:              fields.kind,
		StartDate:         fields.start,
		EndDate:           fields.end,
		StartTime:         fields.startTime,
		EndTime:           fields.endTime,
		Reason:            req.Reason + " (added by admin)",
		Status:            StatusApproved,
		ReplacementStatus: ReplacementNotRequired,
		ApprovedBy:        approverLabel,
	}

	quantity, unit, err := s.quantity(ctx, l)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := deduct(requester, l.Kind, quantity, unit, req.IgnoreBalance); err != nil {
		return LeaveResponse{}, err
	}
	if err := qEmployees.Update(ctx, requester); err != nil {
		s.logger.Error("admin create leave balance update failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("admin create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	body := fmt.Sprintf("An approved leave was recorded for you: %s.", describe(l))
	if err := s.enqueueOne(ctx, tx, requester.ChatID, body); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.queueEvent(ctx, tx, events.LeaveApproved, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("admin create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("admin create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.Bool("ignore_balance", req.IgnoreBalance),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetForEmployee(ctx context.Context, employeeID string, limit int) ([]LeaveResponse, error) {
	requests, err := s.repo.FindByEmployee(ctx, employeeID, limit)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListPendingReview(ctx context.Context) ([]LeaveResponse, error) {
	requests, err := s.repo.ListPendingReview(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListAwaitingReplacement(ctx context.Context, replacementID string) ([]LeaveResponse, error) {
	requests, err := s.repo.ListAwaitingReplacement(ctx, replacementID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) GetAll(ctx context.Context, filter ListFilter) ([]LeaveResponse, int64, error) {
	requests, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(requests), total, nil
}

// HasOverlap is a read-only advisory for the submitting employee: does any
// department colleague already have an approved leave touching [start, end]?
// It never blocks submission.
func (s *service) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	e, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.ErrNotFound
		}
		return false, err
	}
	if e.Department == "" {
		return false, nil
	}
	return s.repo.HasOverlap(ctx, e.Department, employeeID, start, end)
}

// quantity computes the deduction amount for a request. This is the only
// call site of the day/hour formulas on the approval paths.
func (s *service) quantity(ctx context.Context, l *LeaveRequest) (decimal.Decimal, string, error) {
	if l.Kind == KindHourly {
		hours, err := LeaveHours(l.StartTime, l.EndTime)
		return hours, "hours", err
	}
	set, err := s.holidays.DateSet(ctx, l.StartDate, l.EndDate)
	if err != nil {
		return decimal.Zero, "", err
	}
	return WorkingDays(l.StartDate, l.EndDate, set), "days", nil
}

// deduct mutates the requester's relevant balance in memory after the
// sufficiency check. ignoreBalance skips the check but still deducts.
func deduct(e *employee.Employee, kind string, quantity decimal.Decimal, unit string, ignoreBalance bool) error {
	switch kind {
	case KindDaily:
		if !ignoreBalance && e.DailyBalance.LessThan(quantity) {
			return leaveerrors.InsufficientBalance(quantity, e.DailyBalance, unit)
		}
		e.DailyBalance = e.DailyBalance.Sub(quantity)
	case KindHourly:
		if !ignoreBalance && e.HourlyBalance.LessThan(quantity) {
			return leaveerrors.InsufficientBalance(quantity, e.HourlyBalance, unit)
		}
		e.HourlyBalance = e.HourlyBalance.Sub(quantity)
	default:
		return leaveerrors.ErrInvalidKind
	}
	return nil
}

func (s *service) notifyManagers(ctx context.Context, tx *sql.Tx, qEmployees employee.Repository, requesterName string, l *LeaveRequest) error {
	managers, err := qEmployees.ListApprovedManagers(ctx)
	if err != nil {
		s.logger.Error("list managers failed", zap.Error(err))
		return err
	}
	body := fmt.Sprintf("New leave request from %s: %s. Reason: %s", requesterName, describe(l), l.Reason)
	for _, m := range managers {
		if err := s.enqueueOne(ctx, tx, m.ChatID, body); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) enqueueOne(ctx context.Context, tx *sql.Tx, chatID int64, body string) error {
	if s.notify == nil {
		return nil
	}
	err := s.notify.WithTx(tx).Enqueue(ctx, notification.Message{
		ID:              uuid.NewString(),
		RecipientChatID: chatID,
		Body:            body,
		Status:          notification.StatusPending,
	})
	if err != nil {
		s.logger.Error("enqueue notification failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return err
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, l *LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.LeaveLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		Status:     l.Status,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal leave event failed", zap.Error(err))
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

type requestFields struct {
	kind      string
	start     time.Time
	end       time.Time
	startTime string
	endTime   string
}

// parseRequestFields normalizes a submitted or edited request. enforceFuture
// applies the employee-submission rule that the start date must not be in the
// past; admin paths may record historical leave.
func parseRequestFields(kind, startDate, endDate, startTime, endTime string, enforceFuture bool) (requestFields, error) {
	if kind != KindDaily && kind != KindHourly {
		return requestFields{}, leaveerrors.ErrInvalidKind
	}

	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return requestFields{}, leaveerrors.ErrInvalidDate
	}
	if enforceFuture {
		today := time.Now()
		todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		if start.Before(todayDate) {
			return requestFields{}, leaveerrors.ErrStartInPast
		}
	}

	fields := requestFields{kind: kind, start: start}

	switch kind {
	case KindDaily:
		end := start
		if endDate != "" {
			end, err = time.Parse(DateLayout, endDate)
			if err != nil {
				return requestFields{}, leaveerrors.ErrInvalidDate
			}
		}
		if end.Before(start) {
			return requestFields{}, leaveerrors.ErrEndBeforeStart
		}
		fields.end = end
	case KindHourly:
		// The hourly kind always spans a single day.
		fields.end = start
		if _, err := LeaveHours(startTime, endTime); err != nil {
			return requestFields{}, err
		}
		fields.startTime = startTime
		fields.endTime = endTime
	}

	return fields, nil
}

func describe(l *LeaveRequest) string {
	if l.Kind == KindHourly {
		return fmt.Sprintf("hourly leave on %s from %s to %s",
			l.StartDate.Format(DateLayout), l.StartTime, l.EndTime)
	}
	if l.StartDate.Equal(l.EndDate) {
		return fmt.Sprintf("daily leave on %s", l.StartDate.Format(DateLayout))
	}
	return fmt.Sprintf("daily leave from %s to %s",
		l.StartDate.Format(DateLayout), l.EndDate.Format(DateLayout))
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:                l.ID.String(),
		EmployeeID:        l.EmployeeID.String(),
		Kind:              l.Kind,
		StartDate:         l.StartDate.Format(DateLayout),
		EndDate:           l.EndDate.Format(DateLayout),
		StartTime:         l.StartTime,
		EndTime:           l.EndTime,
		Reason:            l.Reason,
		Status:            l.Status,
		ReplacementStatus: l.ReplacementStatus,
		ApprovedBy:        l.ApprovedBy,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
	}
	if l.ReplacementID != nil {
		resp.ReplacementID = l.ReplacementID.String()
	}
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(requests))
	for i, l := range requests {
		resp[i] = mapToResponse(l)
	}
	return resp
}
