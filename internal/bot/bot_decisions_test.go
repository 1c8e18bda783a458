package bot

import (
	"context"
	"testing"
	"time"

	"leavedesk/internal/employee"
	employeeerrors "leavedesk/internal/employee/errors"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeEmployeeService struct {
	getByChatIDFn func(ctx context.Context, chatID int64) (employee.EmployeeResponse, error)
	approveFn     func(ctx context.Context, id string) (employee.EmployeeResponse, error)
	removeFn      func(ctx context.Context, id string) error
}

func (f *fakeEmployeeService) Register(ctx context.Context, chatID int64, fullName, department string) (employee.EmployeeResponse, error) {
	return employee.EmployeeResponse{}, nil
}

func (f *fakeEmployeeService) GetByChatID(ctx context.Context, chatID int64) (employee.EmployeeResponse, error) {
	if f.getByChatIDFn != nil {
		return f.getByChatIDFn(ctx, chatID)
	}
	return employee.EmployeeResponse{}, nil
}

func (f *fakeEmployeeService) GetAll(ctx context.Context) ([]employee.EmployeeResponse, error) {
	return nil, nil
}

func (f *fakeEmployeeService) ListPendingApproval(ctx context.Context) ([]employee.EmployeeResponse, error) {
	return nil, nil
}

func (f *fakeEmployeeService) ListReplacementCandidates(ctx context.Context, excludeChatID int64) ([]employee.EmployeeResponse, error) {
	return nil, nil
}

func (f *fakeEmployeeService) Approve(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	if f.approveFn != nil {
		return f.approveFn(ctx, id)
	}
	return employee.EmployeeResponse{}, nil
}

func (f *fakeEmployeeService) Remove(ctx context.Context, id string) error {
	if f.removeFn != nil {
		return f.removeFn(ctx, id)
	}
	return nil
}

func (f *fakeEmployeeService) AdminCreate(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	return employee.EmployeeResponse{}, nil
}

func (f *fakeEmployeeService) Update(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	return employee.EmployeeResponse{}, nil
}

func (f *fakeEmployeeService) GrantMonthlyQuota(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	return employee.EmployeeResponse{}, nil
}

func (f *fakeEmployeeService) RenewMonthlyBalances(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func manager() employee.EmployeeResponse {
	return employee.EmployeeResponse{ID: "mgr-1", FullName: "Dana", IsManager: true, Status: employee.StatusApproved}
}

func TestDecideRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("approve calls the employee service", func(t *testing.T) {
		var approvedID string
		employees := &fakeEmployeeService{
			getByChatIDFn: func(ctx context.Context, chatID int64) (employee.EmployeeResponse, error) {
				return manager(), nil
			},
			approveFn: func(ctx context.Context, id string) (employee.EmployeeResponse, error) {
				approvedID = id
				return employee.EmployeeResponse{ID: id, Status: employee.StatusApproved}, nil
			},
		}
		b := &Bot{employees: employees, logger: zap.NewNop()}

		reply := b.decideRegistration(ctx, 10, "approve:emp-7")
		assert.Equal(t, "emp-7", approvedID)
		assert.Equal(t, "Approved. The employee has been notified.", reply)
	})

	t.Run("reject removes the registrant", func(t *testing.T) {
		var removedID string
		employees := &fakeEmployeeService{
			getByChatIDFn: func(ctx context.Context, chatID int64) (employee.EmployeeResponse, error) {
				return manager(), nil
			},
			removeFn: func(ctx context.Context, id string) error {
				removedID = id
				return nil
			},
		}
		b := &Bot{employees: employees, logger: zap.NewNop()}

		reply := b.decideRegistration(ctx, 10, "reject:emp-7")
		assert.Equal(t, "emp-7", removedID)
		assert.Equal(t, "Rejected. The registrant has been notified.", reply)
	})

	t.Run("non-managers are refused", func(t *testing.T) {
		employees := &fakeEmployeeService{
			getByChatIDFn: func(ctx context.Context, chatID int64) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{ID: "emp-2", Status: employee.StatusApproved}, nil
			},
			approveFn: func(ctx context.Context, id string) (employee.EmployeeResponse, error) {
				t.Fatal("approve must not be reached")
				return employee.EmployeeResponse{}, nil
			},
		}
		b := &Bot{employees: employees, logger: zap.NewNop()}

		reply := b.decideRegistration(ctx, 10, "approve:emp-7")
		assert.Equal(t, "This action is for managers.", reply)
	})

	t.Run("already handled registrations report it", func(t *testing.T) {
		employees := &fakeEmployeeService{
			getByChatIDFn: func(ctx context.Context, chatID int64) (employee.EmployeeResponse, error) {
				return manager(), nil
			},
			approveFn: func(ctx context.Context, id string) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrAlreadyProcessed
			},
		}
		b := &Bot{employees: employees, logger: zap.NewNop()}

		reply := b.decideRegistration(ctx, 10, "approve:emp-7")
		assert.Equal(t, "This registration was already handled.", reply)
	})

	t.Run("malformed payload is ignored", func(t *testing.T) {
		b := &Bot{employees: &fakeEmployeeService{}, logger: zap.NewNop()}
		assert.Empty(t, b.decideRegistration(ctx, 10, "approve"))
	})
}
