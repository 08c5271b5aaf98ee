package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/db"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/services/scheduling-service/internal/outbox"
	"github.com/jackc/pgx/v5"
)

type NewSchedule struct {
	UserID       int64
	RoomID       int64
	ScheduleDate time.Time
	// IdempotencyKey, when set, makes a repeated create by the same user return the first result.
	IdempotencyKey string
}

// ScheduleFilter selects schedules. Zero values mean "any".
type ScheduleFilter struct {
	UserID   int64
	RoomID   int64
	From     time.Time
	To       time.Time
	Upcoming bool
	Page     int
	Limit    int
}

const scheduleSelect = `
	SELECT s.id, s.schedule_date, s.user_id, s.room_id, s.status, s.created_at, s.updated_at,
		r.id, r.number, r.availability, r.start_time, r.end_time, r.interval_minutes, r.created_at, r.updated_at,
		u.id, u.first_name, u.last_name, u.email, u.account_type
	FROM schedules s
	JOIN rooms r ON r.id = s.room_id
	JOIN users u ON u.id = s.user_id`

func scanSchedule(row scanner) (domain.Schedule, error) {
	var s domain.Schedule
	var rm domain.Room
	var u domain.ScheduleUser
	err := row.Scan(
		&s.ID, &s.ScheduleDate, &s.UserID, &s.RoomID, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		&rm.ID, &rm.Number, &rm.Availability, &rm.StartTime, &rm.EndTime, &rm.IntervalMinutes, &rm.CreatedAt, &rm.UpdatedAt,
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.AccountType,
	)
	if err != nil {
		return domain.Schedule{}, err
	}
	s.Room = &rm
	s.User = &u
	return s, nil
}

func getSchedule(ctx context.Context, q pgx.Tx, id int64) (domain.Schedule, error) {
	s, err := scanSchedule(q.QueryRow(ctx, scheduleSelect+` WHERE s.id = $1`, id))
	return s, notFound(err)
}

// CreateSchedule inserts a pending schedule. A live booking for the same room and start time
// yields ErrSlotTaken. replayed reports that the idempotency key had already produced s.
func (r *Repository) CreateSchedule(ctx context.Context, ns NewSchedule) (s domain.Schedule, replayed bool, err error) {
	err = r.pool.InTx(ctx, func(tx pgx.Tx) error {
		key := strings.TrimSpace(ns.IdempotencyKey)
		if key != "" {
			prior, found, err := lockIdempotencyKey(ctx, tx, ns.UserID, key)
			if err != nil {
				return err
			}
			if found {
				s, err = getSchedule(ctx, tx, prior)
				replayed = err == nil
				return err
			}
		}

		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO schedules (schedule_date, user_id, room_id, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, ns.ScheduleDate.UTC(), ns.UserID, ns.RoomID, domain.StatusPending).Scan(&id)
		if db.HasCode(err, db.CodeUniqueViolation) {
			return ErrSlotTaken
		}
		if db.HasCode(err, db.CodeForeignKeyViolation) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if key != "" {
			if _, err := tx.Exec(ctx, `
				UPDATE schedule_idempotency_keys SET schedule_id = $3
				WHERE user_id = $1 AND idempotency_key = $2
			`, ns.UserID, key, id); err != nil {
				return err
			}
		}

		s, err = getSchedule(ctx, tx, id)
		if err != nil {
			return err
		}
		evt, err := outbox.NewScheduleEvent(outbox.ScheduleCreated, outbox.SchedulePayload{
			ScheduleID:   s.ID,
			RoomID:       s.RoomID,
			UserID:       s.UserID,
			ScheduleDate: s.ScheduleDate.UTC(),
			Status:       string(s.Status),
			ActorID:      ns.UserID,
			OccurredAt:   r.now().UTC(),
		}.WithDetails(s))
		return r.emit(ctx, tx, evt, err)
	})
	return s, replayed, err
}

// lockIdempotencyKey claims (userID, key) for this transaction. found is true when an earlier
// request with the key already created a schedule.
func lockIdempotencyKey(ctx context.Context, tx pgx.Tx, userID int64, key string) (scheduleID int64, found bool, err error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO schedule_idempotency_keys (user_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
	`, userID, key); err != nil {
		return 0, false, err
	}
	var prior *int64
	if err := tx.QueryRow(ctx, `
		SELECT schedule_id FROM schedule_idempotency_keys
		WHERE user_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, userID, key).Scan(&prior); err != nil {
		return 0, false, err
	}
	if prior == nil {
		return 0, false, nil
	}
	return *prior, true, nil
}

func (r *Repository) GetSchedule(ctx context.Context, id int64) (domain.Schedule, error) {
	s, err := scanSchedule(r.pool.QueryRow(ctx, scheduleSelect+` WHERE s.id = $1`, id))
	return s, notFound(err)
}

// ListSchedules returns one page of schedules, newest first (upcoming: soonest first), and the
// total number of matches.
func (r *Repository) ListSchedules(ctx context.Context, f ScheduleFilter) ([]domain.Schedule, int, error) {
	where := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}
	if f.UserID != 0 {
		where = append(where, "s.user_id = "+arg(f.UserID))
	}
	if f.RoomID != 0 {
		where = append(where, "s.room_id = "+arg(f.RoomID))
	}
	if !f.From.IsZero() {
		where = append(where, "s.schedule_date >= "+arg(f.From.UTC()))
	}
	if !f.To.IsZero() {
		where = append(where, "s.schedule_date < "+arg(f.To.UTC()))
	}
	order := "s.schedule_date DESC, s.id DESC"
	if f.Upcoming {
		where = append(where, "s.status <> 'cancelled'", "s.schedule_date >= "+arg(r.now().UTC()))
		order = "s.schedule_date ASC, s.id ASC"
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM schedules s WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := scheduleSelect + ` WHERE ` + cond + ` ORDER BY ` + order
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(offset(f.Page, f.Limit))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []domain.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// RescheduleSchedule moves a non-cancelled schedule to another room and/or time.
func (r *Repository) RescheduleSchedule(ctx context.Context, id, roomID int64, at time.Time) (domain.Schedule, error) {
	var out domain.Schedule
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE schedules SET room_id = $2, schedule_date = $3, updated_at = now()
			WHERE id = $1 AND status <> 'cancelled'
		`, id, roomID, at.UTC())
		if db.HasCode(err, db.CodeUniqueViolation) {
			return ErrSlotTaken
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.missingOrStale(ctx, tx, id)
		}
		out, err = getSchedule(ctx, tx, id)
		return err
	})
	return out, err
}

// SetScheduleStatus moves a schedule from one status to another. If the stored status is no
// longer from, nothing changes and ErrStale is returned.
func (r *Repository) SetScheduleStatus(ctx context.Context, id int64, from, to domain.ScheduleStatus, actorID int64) (domain.Schedule, error) {
	var out domain.Schedule
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE schedules SET status = $3, updated_at = now()
			WHERE id = $1 AND status = $2
		`, id, from, to)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.missingOrStale(ctx, tx, id)
		}
		out, err = getSchedule(ctx, tx, id)
		if err != nil {
			return err
		}
		eventType := outbox.ScheduleStatusChanged
		if to == domain.StatusCancelled {
			eventType = outbox.ScheduleCancelled
		}
		evt, err := outbox.NewScheduleEvent(eventType, outbox.SchedulePayload{
			ScheduleID:   out.ID,
			RoomID:       out.RoomID,
			UserID:       out.UserID,
			ScheduleDate: out.ScheduleDate.UTC(),
			Status:       string(to),
			FromStatus:   string(from),
			ActorID:      actorID,
			OccurredAt:   r.now().UTC(),
		}.WithDetails(out))
		return r.emit(ctx, tx, evt, err)
	})
	return out, err
}

func (r *Repository) missingOrStale(ctx context.Context, tx pgx.Tx, id int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schedules WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStale
}

func (r *Repository) DeleteSchedule(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsSlotTaken reports whether err means the slot is already booked, either as the mapped
// sentinel or as the raw unique violation.
func IsSlotTaken(err error) bool {
	return errors.Is(err, ErrSlotTaken) || db.HasCode(err, db.CodeUniqueViolation)
}
