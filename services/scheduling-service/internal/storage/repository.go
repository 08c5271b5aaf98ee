package storage

import (
	"context"
	"errors"
	"time"

	"github.com/goold/roomsched/libs/db"
	"github.com/goold/roomsched/services/scheduling-service/internal/outbox"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSlotTaken       = errors.New("time slot already booked")
	ErrEmailTaken      = errors.New("email already registered")
	ErrRoomNumberTaken = errors.New("room number already exists")
	ErrRoomInUse       = errors.New("room has schedules")
	// ErrStale means the row changed between read and write (for example a concurrent status change).
	ErrStale = errors.New("record changed concurrently")
)

// Repository is the PostgreSQL store of the scheduling service. Writes that emit domain events
// insert them into the outbox in the same transaction.
type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	now    func() time.Time
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo, now: time.Now}
}

type scanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if db.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

func (r *Repository) emit(ctx context.Context, tx pgx.Tx, evt outbox.Event, err error) error {
	if err != nil {
		return err
	}
	if r.outbox == nil {
		return nil
	}
	return r.outbox.Insert(ctx, tx, evt)
}
