package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Message is one queued delivery to one recipient. Rows are written inside
// the same transaction as the state change that triggered them, so a message
// exists only if its transition committed.
type Message struct {
	ID              string
	RecipientChatID int64
	Body            string
	Status          string
	CreatedAt       time.Time
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Enqueue(ctx context.Context, msg Message) error
	ListPending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id string) error
	// MarkFailed is terminal: deliveries are best-effort and never retried.
	MarkFailed(ctx context.Context, id string, reason string) error
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Enqueue(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		return errors.New("notification id is required")
	}
	if msg.RecipientChatID == 0 {
		return errors.New("notification recipient is required")
	}
	if msg.Body == "" {
		return errors.New("notification body is required")
	}

	query := `
        INSERT INTO notifications (
            id, recipient_chat_id, body, status
        ) VALUES ($1, $2, $3, $4)
    `

	exec := r.execer()
	_, err := exec.ExecContext(ctx, query, msg.ID, msg.RecipientChatID, msg.Body, msg.Status)
	return err
}

func (r *repository) ListPending(ctx context.Context, limit int) ([]Message, error) {
	query := `
SELECT id::text, recipient_chat_id, body, status, created_at
FROM notifications
WHERE status = $1
ORDER BY created_at ASC
LIMIT $2
`

	rows, err := r.db.QueryContext(ctx, query, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.RecipientChatID, &m.Body, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return msgs, nil
}

func (r *repository) MarkSent(ctx context.Context, id string) error {
	query := `
UPDATE notifications
SET status = $2, processed_at = NOW(), error_message = NULL
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, StatusSent)
	return err
}

func (r *repository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `
UPDATE notifications
SET status = $2, processed_at = NOW(), error_message = LEFT($3, 500)
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, StatusFailed, reason)
	return err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
