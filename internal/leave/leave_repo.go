package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByEmployee(ctx context.Context, employeeID string, limit int) ([]LeaveRequest, error)
	// ListPendingReview returns the manager-visible queue: pending requests
	// whose replacement step is resolved or was never required.
	ListPendingReview(ctx context.Context) ([]LeaveRequest, error)
	// ListAwaitingReplacement returns pending requests waiting on the given
	// employee's accept/decline.
	ListAwaitingReplacement(ctx context.Context, replacementID string) ([]LeaveRequest, error)
	// FindAll returns one page of matching requests plus the total match count.
	FindAll(ctx context.Context, filter ListFilter) ([]LeaveRequest, int64, error)
	Update(ctx context.Context, l *LeaveRequest) error
	Delete(ctx context.Context, id string) error
	HasOverlap(ctx context.Context, department, excludeEmployeeID string, start, end time.Time) (bool, error)
}

type repository struct {
	db      *gorm.DB
	locking bool
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds the repository onto an open sql.Tx so reads and writes share
// the service's transaction boundary. Reads by primary key then take a row
// lock, so a concurrent transaction on the same request blocks until commit
// and re-reads the updated status instead of the stale pending one.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{})
	if err != nil {
		return r
	}
	return &repository{db: gdb, locking: true}
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	q := r.db.WithContext(ctx)
	if r.locking {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var l LeaveRequest
	err := q.First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string, limit int) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	q := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&requests).Error
	return requests, err
}

func (r *repository) ListPendingReview(ctx context.Context) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND replacement_status IN ?", StatusPending,
			[]string{ReplacementAccepted, ReplacementNotRequired}).
		Order("created_at asc").
		Find(&requests).Error
	return requests, err
}

func (r *repository) ListAwaitingReplacement(ctx context.Context, replacementID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("replacement_id = ? AND status = ? AND replacement_status = ?",
			replacementID, StatusPending, ReplacementPending).
		Order("created_at asc").
		Find(&requests).Error
	return requests, err
}

// ListFilter narrows FindAll for reporting. Zero values mean "no constraint".
type ListFilter struct {
	EmployeeID string
	Status     string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

func (r *repository) FindAll(ctx context.Context, filter ListFilter) ([]LeaveRequest, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&LeaveRequest{})
		if filter.EmployeeID != "" {
			q = q.Where("employee_id = ?", filter.EmployeeID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if !filter.From.IsZero() {
			q = q.Where("end_date >= ?", filter.From)
		}
		if !filter.To.IsZero() {
			q = q.Where("start_date <= ?", filter.To)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := scoped().Order("created_at desc")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var requests []LeaveRequest
	err := q.Find(&requests).Error
	return requests, total, err
}

func (r *repository) Update(ctx context.Context, l *LeaveRequest) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&LeaveRequest{}, "id = ?", id).Error
}

// HasOverlap reports whether any other employee in the same department holds
// an approved request intersecting [start, end]. Touching at a single day
// counts as overlap.
func (r *repository) HasOverlap(ctx context.Context, department, excludeEmployeeID string, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Joins("JOIN employees ON employees.id = leave_requests.employee_id").
		Where("employees.department = ?", department).
		Where("leave_requests.employee_id <> ?", excludeEmployeeID).
		Where("leave_requests.status = ?", StatusApproved).
		Where("leave_requests.start_date <= ? AND leave_requests.end_date >= ?", end, start).
		Count(&count).Error
	return count > 0, err
}
