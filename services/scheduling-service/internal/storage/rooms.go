package storage

import (
	"context"

	"github.com/goold/roomsched/libs/db"
	"github.com/goold/roomsched/libs/domain"
)

const roomColumns = `id, number, availability, start_time, end_time, interval_minutes, created_at, updated_at`

func scanRoom(row scanner) (domain.Room, error) {
	var rm domain.Room
	err := row.Scan(&rm.ID, &rm.Number, &rm.Availability, &rm.StartTime, &rm.EndTime, &rm.IntervalMinutes, &rm.CreatedAt, &rm.UpdatedAt)
	return rm, err
}

func roomWriteErr(err error) error {
	if db.HasCode(err, db.CodeUniqueViolation) {
		return ErrRoomNumberTaken
	}
	return notFound(err)
}

func (r *Repository) CreateRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	out, err := scanRoom(r.pool.QueryRow(ctx, `
		INSERT INTO rooms (number, availability, start_time, end_time, interval_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+roomColumns,
		rm.Number, rm.Availability, rm.StartTime, rm.EndTime, rm.IntervalMinutes))
	return out, roomWriteErr(err)
}

func (r *Repository) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	rm, err := scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	return rm, notFound(err)
}

func (r *Repository) ListRooms(ctx context.Context, onlyAvailable bool) ([]domain.Room, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE NOT $1 OR availability
		ORDER BY number
	`, onlyAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []domain.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

func (r *Repository) SaveRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	out, err := scanRoom(r.pool.QueryRow(ctx, `
		UPDATE rooms
		SET number = $2,
			availability = $3,
			start_time = $4,
			end_time = $5,
			interval_minutes = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns,
		rm.ID, rm.Number, rm.Availability, rm.StartTime, rm.EndTime, rm.IntervalMinutes))
	return out, roomWriteErr(err)
}

func (r *Repository) SetRoomAvailability(ctx context.Context, id int64, available bool) (domain.Room, error) {
	rm, err := scanRoom(r.pool.QueryRow(ctx, `
		UPDATE rooms SET availability = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns, id, available))
	return rm, notFound(err)
}

func (r *Repository) DeleteRoom(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if db.HasCode(err, db.CodeForeignKeyViolation) {
		return ErrRoomInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
