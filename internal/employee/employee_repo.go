package employee

import (
	"context"
	"database/sql"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Employee) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByChatID(ctx context.Context, chatID int64) (*Employee, error)
	FindAll(ctx context.Context) ([]Employee, error)
	FindByStatus(ctx context.Context, status string) ([]Employee, error)
	ListApprovedManagers(ctx context.Context) ([]Employee, error)
	ListReplacementCandidates(ctx context.Context, excludeChatID int64) ([]Employee, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db      *gorm.DB
	locking bool
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds the repository onto an open sql.Tx so reads and writes share
// the service's transaction boundary. Primary-key reads then take a row lock,
// so concurrent transactions mutating the same employee serialize on the row
// instead of last-writer-wins on the balance columns.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{})
	if err != nil {
		return r
	}
	return &repository{db: gdb, locking: true}
}

func (r *repository) Create(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	q := r.db.WithContext(ctx)
	if r.locking {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var e Employee
	err := q.First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindByChatID(ctx context.Context, chatID int64) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "chat_id = ?", chatID).Error
	return &e, err
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByStatus(ctx context.Context, status string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) ListApprovedManagers(ctx context.Context) ([]Employee, error) {
	var managers []Employee
	err := r.db.WithContext(ctx).
		Where("is_manager = ?", true).
		Where("status = ?", StatusApproved).
		Find(&managers).Error
	return managers, err
}

func (r *repository) ListReplacementCandidates(ctx context.Context, excludeChatID int64) ([]Employee, error) {
	var candidates []Employee
	err := r.db.WithContext(ctx).
		Where("chat_id <> ?", excludeChatID).
		Where("status = ?", StatusApproved).
		Order("full_name ASC").
		Find(&candidates).Error
	return candidates, err
}

func (r *repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Employee{}).Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id).Error
}
