package storage

import (
	"context"

	"github.com/goold/roomsched/libs/db"
)

// Notification statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Notification struct {
	EventID    string
	EventType  string
	ScheduleID int64
	Recipient  string
	Subject    string
	Status     string
	Error      string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (event_id, event_type, schedule_id, recipient, subject, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, n.EventID, n.EventType, n.ScheduleID, n.Recipient, n.Subject, n.Status, n.Error)
	return err
}
