package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	employeeerrors "leavedesk/internal/employee/errors"
	"leavedesk/internal/events"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/notification"
	"leavedesk/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Register(ctx context.Context, chatID int64, fullName, department string) (EmployeeResponse, error)
	GetByChatID(ctx context.Context, chatID int64) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	ListPendingApproval(ctx context.Context) ([]EmployeeResponse, error)
	ListReplacementCandidates(ctx context.Context, excludeChatID int64) ([]EmployeeResponse, error)
	Approve(ctx context.Context, id string) (EmployeeResponse, error)
	Remove(ctx context.Context, id string) error
	AdminCreate(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	GrantMonthlyQuota(ctx context.Context, id string) (EmployeeResponse, error)
	RenewMonthlyBalances(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	notify notification.Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	notifyRepo notification.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		notify: notifyRepo,
		outbox: outboxRepo,
		logger: l,
	}
}

// Register creates an employee on first contact. The very first employee ever
// registered is auto-approved and made a manager so the system has someone to
// review everything that follows.
func (s *service) Register(ctx context.Context, chatID int64, fullName, department string) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("register employee requested",
		zap.String("request_id", rid),
		zap.Int64("chat_id", chatID),
		zap.String("department", department),
	)

	if fullName == "" {
		return EmployeeResponse{}, employeeerrors.ErrNameRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("register employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	existing, err := qtx.FindByChatID(ctx, chatID)
	if err == nil {
		return mapToResponse(*existing), employeeerrors.ErrChatIDExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("register employee lookup failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	count, err := qtx.CountAll(ctx)
	if err != nil {
		s.logger.Error("register employee count failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	isFirst := count == 0

	status := StatusPending
	if isFirst {
		status = StatusApproved
	}

	e := &Employee{
		ID:                 uuid.New(),
		ChatID:             chatID,
		FullName:           fullName,
		Department:         department,
		IsManager:          isFirst,
		Status:             status,
		MonthlyDailyQuota:  DefaultMonthlyDailyQuota,
		MonthlyHourlyQuota: DefaultMonthlyHourlyQuota,
	}

	if err := qtx.Create(ctx, e); err != nil {
		s.logger.Error("register employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if !isFirst {
		managers, err := qtx.ListApprovedManagers(ctx)
		if err != nil {
			s.logger.Error("register employee list managers failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		body := fmt.Sprintf(
			"New employee %s from department %s is awaiting approval. Send /staff to review.",
			e.FullName, e.Department,
		)
		if err := s.enqueueAll(ctx, tx, managers, body); err != nil {
			return EmployeeResponse{}, err
		}
	}

	if err := s.queueEvent(ctx, tx, events.EmployeeRegistered, e); err != nil {
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("register employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("register employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", e.ID.String()),
		zap.Bool("bootstrap_manager", isFirst),
	)

	return mapToResponse(*e), nil
}

func (s *service) GetByChatID(ctx context.Context, chatID int64) (EmployeeResponse, error) {
	e, err := s.repo.FindByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}
	return mapToResponse(*e), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(employees), nil
}

func (s *service) ListPendingApproval(ctx context.Context) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(employees), nil
}

func (s *service) ListReplacementCandidates(ctx context.Context, excludeChatID int64) ([]EmployeeResponse, error) {
	employees, err := s.repo.ListReplacementCandidates(ctx, excludeChatID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(employees), nil
}

// Approve flips a pending registration to approved and seeds the opening
// balance from the monthly quotas.
func (s *service) Approve(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}
	if e.Status != StatusPending {
		return EmployeeResponse{}, employeeerrors.ErrAlreadyProcessed
	}

	e.Status = StatusApproved
	e.DailyBalance = e.MonthlyDailyQuota
	e.HourlyBalance = e.MonthlyHourlyQuota

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("approve employee persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := s.enqueueOne(ctx, tx, e.ChatID,
		"Congratulations! Your account has been approved. Send /start to begin."); err != nil {
		return EmployeeResponse{}, err
	}
	if err := s.queueEvent(ctx, tx, events.EmployeeApproved, e); err != nil {
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("approve employee success", zap.String("employee_id", id))
	return mapToResponse(*e), nil
}

// Remove hard-deletes an employee. A still-pending registrant is told their
// registration was rejected; that employee's own requests go with them via
// the leave_requests foreign key.
func (s *service) Remove(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("remove employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return employeeerrors.ErrEmployeeNotFound
		}
		return err
	}

	if e.Status == StatusPending {
		if err := s.enqueueOne(ctx, tx, e.ChatID,
			"Sorry, your registration request was rejected."); err != nil {
			return err
		}
	}

	if err := qtx.Delete(ctx, id); err != nil {
		s.logger.Error("remove employee persist failed", zap.Error(err))
		return err
	}

	if err := s.queueEvent(ctx, tx, events.EmployeeRemoved, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("remove employee commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("remove employee success", zap.String("employee_id", id))
	return nil
}

// AdminCreate is the console's direct-entry path: the employee arrives
// already approved with the default opening balance.
func (s *service) AdminCreate(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("admin create employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindByChatID(ctx, req.ChatID); err == nil {
		return EmployeeResponse{}, employeeerrors.ErrChatIDExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return EmployeeResponse{}, err
	}

	e := &Employee{
		ID:                 uuid.New(),
		ChatID:             req.ChatID,
		FullName:           req.FullName,
		Department:         req.Department,
		IsManager:          req.IsManager,
		Status:             StatusApproved,
		DailyBalance:       DefaultMonthlyDailyQuota,
		HourlyBalance:      DefaultMonthlyHourlyQuota,
		MonthlyDailyQuota:  DefaultMonthlyDailyQuota,
		MonthlyHourlyQuota: DefaultMonthlyHourlyQuota,
	}

	if err := qtx.Create(ctx, e); err != nil {
		s.logger.Error("admin create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := s.queueEvent(ctx, tx, events.EmployeeRegistered, e); err != nil {
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("admin create employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("admin create employee success", zap.String("employee_id", e.ID.String()))
	return mapToResponse(*e), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}

	e.FullName = req.FullName
	e.Department = req.Department
	e.IsManager = req.IsManager
	e.DailyBalance = decimal.NewFromFloat(req.DailyBalance)
	e.HourlyBalance = decimal.NewFromFloat(req.HourlyBalance)

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("update employee success", zap.String("employee_id", id))
	return mapToResponse(*e), nil
}

// GrantMonthlyQuota adds the monthly quotas to the current balances.
// It performs no date check: idempotency is the caller's problem, which is
// why the renewal sweep below exists.
func (s *service) GrantMonthlyQuota(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("grant quota begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}

	e.DailyBalance = e.DailyBalance.Add(e.MonthlyDailyQuota)
	e.HourlyBalance = e.HourlyBalance.Add(e.MonthlyHourlyQuota)

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("grant quota persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("grant quota commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("grant quota success",
		zap.String("employee_id", id),
		zap.String("daily_balance", e.DailyBalance.String()),
		zap.String("hourly_balance", e.HourlyBalance.String()),
	)
	return mapToResponse(*e), nil
}

// RenewMonthlyBalances grants the monthly quota to every approved employee
// that has not yet been granted for now's calendar month. Each employee is
// processed in its own transaction, so a redundant firing (restart, overlap)
// skips everyone already stamped.
func (s *service) RenewMonthlyBalances(ctx context.Context, now time.Time) (int, error) {
	month := now.Format("2006-01")
	s.logger.Info("monthly balance renewal started", zap.String("month", month))

	employees, err := s.repo.FindByStatus(ctx, StatusApproved)
	if err != nil {
		s.logger.Error("renewal list employees failed", zap.Error(err))
		return 0, err
	}

	renewed := 0
	for _, candidate := range employees {
		ok, err := s.renewOne(ctx, candidate.ID.String(), month)
		if err != nil {
			s.logger.Error("renew employee balance failed",
				zap.String("employee_id", candidate.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			renewed++
		}
	}

	s.logger.Info("monthly balance renewal finished",
		zap.String("month", month),
		zap.Int("renewed", renewed),
	)
	return renewed, nil
}

func (s *service) renewOne(ctx context.Context, id, month string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	// Re-checked inside the tx: a concurrent sweep may have stamped it first.
	if e.Status != StatusApproved || e.LastGrantedMonth == month {
		return false, nil
	}

	e.DailyBalance = e.DailyBalance.Add(e.MonthlyDailyQuota)
	e.HourlyBalance = e.HourlyBalance.Add(e.MonthlyHourlyQuota)
	e.LastGrantedMonth = month

	if err := qtx.Update(ctx, e); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	s.logger.Info("renewed balance",
		zap.String("employee_id", id),
		zap.String("daily_balance", e.DailyBalance.String()),
		zap.String("hourly_balance", e.HourlyBalance.String()),
	)
	return true, nil
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

func (s *service) enqueueAll(ctx context.Context, tx *sql.Tx, recipients []Employee, body string) error {
	for _, r := range recipients {
		if err := s.enqueueOne(ctx, tx, r.ChatID, body); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, e *Employee) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.EmployeeLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		EmployeeID: e.ID.String(),
		ChatID:     e.ChatID,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal employee event failed", zap.Error(err))
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "employee",
		AggregateID:   e.ID.String(),
		EventType:     eventType,
		Topic:         events.EmployeeLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func mapRepositoryError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
		return employeeerrors.ErrChatIDExists
	}
	return err
}

func mapToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                 e.ID.String(),
		ChatID:             e.ChatID,
		FullName:           e.FullName,
		Department:         e.Department,
		IsManager:          e.IsManager,
		Status:             e.Status,
		DailyBalance:       e.DailyBalance.String(),
		HourlyBalance:      e.HourlyBalance.String(),
		MonthlyDailyQuota:  e.MonthlyDailyQuota.String(),
		MonthlyHourlyQuota: e.MonthlyHourlyQuota.String(),
		LastGrantedMonth:   e.LastGrantedMonth,
	}
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = mapToResponse(e)
	}
	return resp
}
