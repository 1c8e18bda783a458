package leave_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"leavedesk/internal/employee"
	"leavedesk/internal/holiday"
	"leavedesk/internal/leave"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/notification"
	"leavedesk/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	createFn            func(ctx context.Context, l *leave.LeaveRequest) error
	findByIDFn          func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findByEmployeeFn    func(ctx context.Context, employeeID string, limit int) ([]leave.LeaveRequest, error)
	listPendingReviewFn func(ctx context.Context) ([]leave.LeaveRequest, error)
	findAllFn           func(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, int64, error)
	updateFn            func(ctx context.Context, l *leave.LeaveRequest) error
	deleteFn            func(ctx context.Context, id string) error
	hasOverlapFn        func(ctx context.Context, department, excludeEmployeeID string, start, end time.Time) (bool, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindByEmployee(ctx context.Context, employeeID string, limit int) ([]leave.LeaveRequest, error) {
	if f.findByEmployeeFn != nil {
		return f.findByEmployeeFn(ctx, employeeID, limit)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) ListPendingReview(ctx context.Context) ([]leave.LeaveRequest, error) {
	if f.listPendingReviewFn != nil {
		return f.listPendingReviewFn(ctx)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) ListAwaitingReplacement(ctx context.Context, replacementID string) ([]leave.LeaveRequest, error) {
	return nil, nil
}

func (f *fakeLeaveRepository) FindAll(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, int64, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter)
	}
	return nil, 0, nil
}

func (f *fakeLeaveRepository) Update(ctx context.Context, l *leave.LeaveRequest) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeLeaveRepository) HasOverlap(ctx context.Context, department, excludeEmployeeID string, start, end time.Time) (bool, error) {
	if f.hasOverlapFn != nil {
		return f.hasOverlapFn(ctx, department, excludeEmployeeID, start, end)
	}
	return false, nil
}

type fakeEmployeeRepository struct {
	findByIDFn             func(ctx context.Context, id string) (*employee.Employee, error)
	listApprovedManagersFn func(ctx context.Context) ([]employee.Employee, error)
	updateFn               func(ctx context.Context, e *employee.Employee) error
}

func (f *fakeEmployeeRepository) WithTx(tx *sql.Tx) employee.Repository { return f }

func (f *fakeEmployeeRepository) Create(ctx context.Context, e *employee.Employee) error { return nil }

func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) FindByChatID(ctx context.Context, chatID int64) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) FindAll(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByStatus(ctx context.Context, status string) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeEmployeeRepository) ListApprovedManagers(ctx context.Context) ([]employee.Employee, error) {
	if f.listApprovedManagersFn != nil {
		return f.listApprovedManagersFn(ctx)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) ListReplacementCandidates(ctx context.Context, excludeChatID int64) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeEmployeeRepository) CountAll(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeEmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, e)
	}
	return nil
}

func (f *fakeEmployeeRepository) Delete(ctx context.Context, id string) error { return nil }

type fakeHolidayService struct {
	dateSetFn func(ctx context.Context, start, end time.Time) (map[string]struct{}, error)
}

func (f *fakeHolidayService) Create(ctx context.Context, req holiday.CreateHolidayRequest) (holiday.HolidayResponse, error) {
	return holiday.HolidayResponse{}, nil
}

func (f *fakeHolidayService) GetAll(ctx context.Context) ([]holiday.HolidayResponse, error) {
	return nil, nil
}

func (f *fakeHolidayService) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeHolidayService) DateSet(ctx context.Context, start, end time.Time) (map[string]struct{}, error) {
	if f.dateSetFn != nil {
		return f.dateSetFn(ctx, start, end)
	}
	return map[string]struct{}{}, nil
}

type fakeNotificationRepository struct {
	enqueued []notification.Message
}

func (f *fakeNotificationRepository) WithTx(tx *sql.Tx) notification.Repository { return f }

func (f *fakeNotificationRepository) Enqueue(ctx context.Context, msg notification.Message) error {
	f.enqueued = append(f.enqueued, msg)
	return nil
}

func (f *fakeNotificationRepository) ListPending(ctx context.Context, limit int) ([]notification.Message, error) {
	return nil, nil
}

func (f *fakeNotificationRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeNotificationRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return nil
}

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepository) ListDue(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type leaveServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   leave.Service
	repo      *fakeLeaveRepository
	employees *fakeEmployeeRepository
	holidays  *fakeHolidayService
	notify    *fakeNotificationRepository
	outbox    *fakeOutboxRepository
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	employees := &fakeEmployeeRepository{}
	holidays := &fakeHolidayService{}
	notify := &fakeNotificationRepository{}
	outbox := &fakeOutboxRepository{}
	svc := leave.NewService(db, repo, employees, holidays, notify, outbox)

	return &leaveServiceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		employees: employees,
		holidays:  holidays,
		notify:    notify,
		outbox:    outbox,
	}
}

func expectLeaveTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func testEmployee(dailyBalance, hourlyBalance float64) *employee.Employee {
	return &employee.Employee{
		ID:            uuid.New(),
		ChatID:        100,
		FullName:      "Sami Haddad",
		Department:    "Engineering",
		Status:        employee.StatusApproved,
		DailyBalance:  decimal.NewFromFloat(dailyBalance),
		HourlyBalance: decimal.NewFromFloat(hourlyBalance),
	}
}

func pendingDailyRequest(employeeID uuid.UUID) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:                uuid.New(),
		EmployeeID:        employeeID,
		Kind:              leave.KindDaily,
		StartDate:         day(2024, 1, 1),
		EndDate:           day(2024, 1, 7),
		Reason:            "family visit",
		Status:            leave.StatusPending,
		ReplacementStatus: leave.ReplacementNotRequired,
	}
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	return apperror.ToHTTP(err).Code
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("without replacement managers are notified immediately", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		manager := testEmployee(5, 8)
		manager.ChatID = 900
		manager.IsManager = true

		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}
		deps.employees.listApprovedManagersFn = func(ctx context.Context) ([]employee.Employee, error) {
			return []employee.Employee{*manager}, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: requester.ID.String(),
			Kind:       leave.KindDaily,
			StartDate:  "2030-01-07",
			EndDate:    "2030-01-08",
			Reason:     "family visit",
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, leave.ReplacementNotRequired, resp.ReplacementStatus)
		assert.Len(t, deps.notify.enqueued, 1)
		assert.Equal(t, int64(900), deps.notify.enqueued[0].RecipientChatID)
		assert.Len(t, deps.outbox.created, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("a nominated replacement keeps the request out of the manager queue", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		replacement := testEmployee(5, 8)
		replacement.ChatID = 200

		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			if id == requester.ID.String() {
				return requester, nil
			}
			return replacement, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID:    requester.ID.String(),
			Kind:          leave.KindDaily,
			StartDate:     "2030-01-07",
			Reason:        "family visit",
			ReplacementID: replacement.ID.String(),
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.ReplacementPending, resp.ReplacementStatus)
		// Only the replacement hears about it; no manager fan-out yet.
		assert.Len(t, deps.notify.enqueued, 1)
		assert.Equal(t, int64(200), deps.notify.enqueued[0].RecipientChatID)
	})

	t.Run("nominating yourself degrades to no replacement", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID:    requester.ID.String(),
			Kind:          leave.KindDaily,
			StartDate:     "2030-01-07",
			ReplacementID: requester.ID.String(),
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.ReplacementNotRequired, resp.ReplacementStatus)
	})

	t.Run("start date in the past is rejected", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: uuid.NewString(),
			Kind:       leave.KindDaily,
			StartDate:  "2020-01-01",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrStartInPast)
	})

	t.Run("hourly end time must be after start time", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: uuid.NewString(),
			Kind:       leave.KindHourly,
			StartDate:  "2030-01-07",
			StartTime:  "14:00",
			EndTime:    "09:00",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrEndTimeNotAfterStart)
	})

	t.Run("daily end before start is rejected", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, leave.SubmitLeaveRequest{
			EmployeeID: uuid.NewString(),
			Kind:       leave.KindDaily,
			StartDate:  "2030-01-08",
			EndDate:    "2030-01-07",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrEndBeforeStart)
	})
}

func TestResolveReplacement(t *testing.T) {
	ctx := context.Background()

	newPendingWithReplacement := func(requester *employee.Employee) *leave.LeaveRequest {
		repID := uuid.New()
		l := pendingDailyRequest(requester.ID)
		l.ReplacementID = &repID
		l.ReplacementStatus = leave.ReplacementPending
		return l
	}

	t.Run("accept hands the request to the manager queue", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		manager := testEmployee(5, 8)
		manager.ChatID = 900

		l := newPendingWithReplacement(requester)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}
		deps.employees.listApprovedManagersFn = func(ctx context.Context) ([]employee.Employee, error) {
			return []employee.Employee{*manager}, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.ResolveReplacement(ctx, l.ID.String(), true)
		assert.NoError(t, err)
		assert.Equal(t, leave.ReplacementAccepted, resp.ReplacementStatus)
		assert.Equal(t, leave.StatusPending, resp.Status)
		// Requester plus one manager.
		assert.Len(t, deps.notify.enqueued, 2)
	})

	t.Run("reject cancels the leave outright", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		l := newPendingWithReplacement(requester)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		balanceTouched := false
		deps.employees.updateFn = func(ctx context.Context, e *employee.Employee) error {
			balanceTouched = true
			return nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.ResolveReplacement(ctx, l.ID.String(), false)
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.Equal(t, leave.ReplacementRejected, resp.ReplacementStatus)
		assert.False(t, balanceTouched)
		assert.Len(t, deps.notify.enqueued, 1)
	})

	t.Run("second resolution reports already processed", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		l := newPendingWithReplacement(requester)
		l.ReplacementStatus = leave.ReplacementAccepted
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		expectLeaveTx(t, deps.sqlMock, false)

		_, err := deps.service.ResolveReplacement(ctx, l.ID.String(), true)
		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyProcessed)
		assert.Empty(t, deps.notify.enqueued)
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("deducts the working-day count exactly once", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		l := pendingDailyRequest(requester.ID)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		var savedBalance string
		deps.employees.updateFn = func(ctx context.Context, e *employee.Employee) error {
			savedBalance = e.DailyBalance.String()
			return nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.Approve(ctx, l.ID.String(), "admin")
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Equal(t, "admin", resp.ApprovedBy)
		// Mon-Sun range is 5 working days against a balance of 5.
		assert.Equal(t, "0", savedBalance)
		assert.Len(t, deps.notify.enqueued, 1)
		assert.Equal(t, int64(100), deps.notify.enqueued[0].RecipientChatID)

		// Second call sees the approved status and changes nothing.
		expectLeaveTx(t, deps.sqlMock, false)
		_, err = deps.service.Approve(ctx, l.ID.String(), "admin")
		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyProcessed)
		assert.Len(t, deps.notify.enqueued, 1)
	})

	t.Run("insufficient balance keeps the request pending", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(1, 8)
		l := pendingDailyRequest(requester.ID)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		statusSaved := false
		deps.repo.updateFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			statusSaved = true
			return nil
		}

		expectLeaveTx(t, deps.sqlMock, false)

		_, err := deps.service.Approve(ctx, l.ID.String(), "admin")
		assert.Equal(t, "INSUFFICIENT_BALANCE", appErrorCode(t, err))
		assert.Contains(t, err.Error(), "5 days required, 1 available")
		assert.False(t, statusSaved)
		assert.Equal(t, leave.StatusPending, l.Status)
	})

	t.Run("hourly requests deduct fractional hours", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		l := &leave.LeaveRequest{
			ID:                uuid.New(),
			EmployeeID:        requester.ID,
			Kind:              leave.KindHourly,
			StartDate:         day(2024, 1, 1),
			EndDate:           day(2024, 1, 1),
			StartTime:         "09:00",
			EndTime:           "13:30",
			Status:            leave.StatusPending,
			ReplacementStatus: leave.ReplacementNotRequired,
		}

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		_, err := deps.service.Approve(ctx, l.ID.String(), "admin")
		assert.NoError(t, err)
		assert.Equal(t, "3.5", requester.HourlyBalance.String())
	})

	t.Run("a pending replacement blocks approval", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		repID := uuid.New()
		l := pendingDailyRequest(requester.ID)
		l.ReplacementID = &repID
		l.ReplacementStatus = leave.ReplacementPending

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		expectLeaveTx(t, deps.sqlMock, false)

		_, err := deps.service.Approve(ctx, l.ID.String(), "admin")
		assert.ErrorIs(t, err, leaveerrors.ErrReplacementPending)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("no balance effect", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		l := pendingDailyRequest(requester.ID)

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		balanceTouched := false
		deps.employees.updateFn = func(ctx context.Context, e *employee.Employee) error {
			balanceTouched = true
			return nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.Reject(ctx, l.ID.String())
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.False(t, balanceTouched)
		assert.Len(t, deps.notify.enqueued, 1)
	})
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("switching kind clears the other kind's fields", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		l := &leave.LeaveRequest{
			ID:                uuid.New(),
			EmployeeID:        requester.ID,
			Kind:              leave.KindHourly,
			StartDate:         day(2024, 1, 1),
			EndDate:           day(2024, 1, 1),
			StartTime:         "09:00",
			EndTime:           "13:30",
			Status:            leave.StatusPending,
			ReplacementStatus: leave.ReplacementNotRequired,
		}

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.Edit(ctx, l.ID.String(), leave.EditLeaveRequest{
			Kind:      leave.KindDaily,
			StartDate: "2024-02-01",
			EndDate:   "2024-02-03",
			Reason:    "changed plans",
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.KindDaily, resp.Kind)
		assert.Empty(t, resp.StartTime)
		assert.Empty(t, resp.EndTime)
		assert.Len(t, deps.notify.enqueued, 1)
	})

	t.Run("non-pending requests cannot be edited", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		l := pendingDailyRequest(requester.ID)
		l.Status = leave.StatusApproved

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		expectLeaveTx(t, deps.sqlMock, false)

		_, err := deps.service.Edit(ctx, l.ID.String(), leave.EditLeaveRequest{
			Kind:      leave.KindDaily,
			StartDate: "2024-02-01",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyProcessed)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting an approved request never refunds the deduction", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(0, 8)
		l := pendingDailyRequest(requester.ID)
		l.Status = leave.StatusApproved

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		balanceTouched := false
		deps.employees.updateFn = func(ctx context.Context, e *employee.Employee) error {
			balanceTouched = true
			return nil
		}
		deleted := false
		deps.repo.deleteFn = func(ctx context.Context, id string) error {
			deleted = true
			return nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		err := deps.service.Delete(ctx, l.ID.String())
		assert.NoError(t, err)
		assert.True(t, deleted)
		assert.False(t, balanceTouched)
		assert.Len(t, deps.notify.enqueued, 1)
		assert.Contains(t, deps.notify.enqueued[0].Body, "deleted")
	})

	t.Run("bulk delete skips missing requests and counts the rest", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(0, 8)
		existing := pendingDailyRequest(requester.ID)
		missingID := uuid.NewString()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			if id == missingID {
				return nil, gorm.ErrRecordNotFound
			}
			return existing, nil
		}
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		var deletedIDs []string
		deps.repo.deleteFn = func(ctx context.Context, id string) error {
			deletedIDs = append(deletedIDs, id)
			return nil
		}

		other := pendingDailyRequest(requester.ID)
		expectLeaveTx(t, deps.sqlMock, true)
		expectLeaveTx(t, deps.sqlMock, false)
		expectLeaveTx(t, deps.sqlMock, true)

		deleted, err := deps.service.BulkDelete(ctx, []string{existing.ID.String(), missingID, other.ID.String()})
		assert.NoError(t, err)
		assert.Equal(t, 2, deleted)
		assert.Len(t, deletedIDs, 2)
	})
}

func TestAdminCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("records an approved request and deducts in the same step", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.AdminCreate(ctx, "maria", leave.AdminCreateLeaveRequest{
			EmployeeID: requester.ID.String(),
			Kind:       leave.KindDaily,
			StartDate:  "2024-01-01",
			EndDate:    "2024-01-07",
			Reason:     "sick leave",
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Equal(t, "maria", resp.ApprovedBy)
		assert.Equal(t, "sick leave (added by admin)", resp.Reason)
		assert.Equal(t, "0", requester.DailyBalance.String())
	})

	t.Run("honors the balance check unless overridden", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(1, 8)
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		expectLeaveTx(t, deps.sqlMock, false)

		_, err := deps.service.AdminCreate(ctx, "maria", leave.AdminCreateLeaveRequest{
			EmployeeID: requester.ID.String(),
			Kind:       leave.KindDaily,
			StartDate:  "2024-01-01",
			EndDate:    "2024-01-07",
		})
		assert.Equal(t, "INSUFFICIENT_BALANCE", appErrorCode(t, err))
	})

	t.Run("ignore balance may drive the balance negative", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(1, 8)
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		expectLeaveTx(t, deps.sqlMock, true)

		resp, err := deps.service.AdminCreate(ctx, "maria", leave.AdminCreateLeaveRequest{
			EmployeeID:    requester.ID.String(),
			Kind:          leave.KindDaily,
			StartDate:     "2024-01-01",
			EndDate:       "2024-01-07",
			IgnoreBalance: true,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Equal(t, "-4", requester.DailyBalance.String())
	})
}

func TestHasOverlap(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to the department query", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}
		deps.repo.hasOverlapFn = func(ctx context.Context, department, excludeEmployeeID string, start, end time.Time) (bool, error) {
			assert.Equal(t, "Engineering", department)
			assert.Equal(t, requester.ID.String(), excludeEmployeeID)
			return true, nil
		}

		overlap, err := deps.service.HasOverlap(ctx, requester.ID.String(), day(2024, 1, 1), day(2024, 1, 7))
		assert.NoError(t, err)
		assert.True(t, overlap)
	})

	t.Run("no department means no overlap", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		requester := testEmployee(5, 8)
		requester.Department = ""
		deps.employees.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return requester, nil
		}

		overlap, err := deps.service.HasOverlap(ctx, requester.ID.String(), day(2024, 1, 1), day(2024, 1, 7))
		assert.NoError(t, err)
		assert.False(t, overlap)
	})
}

func TestGetAllPassesFilter(t *testing.T) {
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)
	defer deps.db.Close()

	want := leave.ListFilter{
		EmployeeID: "abc",
		Status:     leave.StatusApproved,
		From:       day(2024, 1, 1),
		To:         day(2024, 1, 31),
		Limit:      20,
		Offset:     40,
	}
	deps.repo.findAllFn = func(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, int64, error) {
		assert.Equal(t, want, filter)
		return nil, 57, nil
	}

	_, total, err := deps.service.GetAll(ctx, want)
	assert.NoError(t, err)
	assert.Equal(t, int64(57), total)
}
