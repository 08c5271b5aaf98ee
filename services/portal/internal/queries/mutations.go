package queries

import (
	"context"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/roomapi"
)

// Mutations go straight to the API. A successful one invalidates the collections it touched; a
// failed one leaves the cache alone.

func (q *Queries) CreateSchedule(ctx context.Context, req domain.CreateScheduleRequest, idempotencyKey string) (domain.Schedule, error) {
	s, err := q.api.CreateSchedule(ctx, req, idempotencyKey)
	if err != nil {
		return s, err
	}
	q.cache.Invalidate(KeySchedules)
	q.cache.Invalidate(roomapi.Key{"rooms", itoa(req.RoomID)})
	return s, nil
}

func (q *Queries) UpdateScheduleStatus(ctx context.Context, id int64, status domain.ScheduleStatus) (domain.Schedule, error) {
	s, err := q.api.UpdateScheduleStatus(ctx, id, status)
	if err != nil {
		return s, err
	}
	q.scheduleChanged(s)
	return s, nil
}

func (q *Queries) CancelSchedule(ctx context.Context, id int64) (domain.Schedule, error) {
	s, err := q.api.CancelSchedule(ctx, id)
	if err != nil {
		return s, err
	}
	q.scheduleChanged(s)
	return s, nil
}

// UpdateSchedule can move a schedule between rooms, so every room entry is dropped.
func (q *Queries) UpdateSchedule(ctx context.Context, id int64, req domain.UpdateScheduleRequest) (domain.Schedule, error) {
	s, err := q.api.UpdateSchedule(ctx, id, req)
	if err != nil {
		return s, err
	}
	q.cache.Invalidate(KeySchedules)
	q.cache.Invalidate(KeyRooms)
	return s, nil
}

func (q *Queries) DeleteSchedule(ctx context.Context, id int64) error {
	if err := q.api.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	q.cache.Invalidate(KeySchedules)
	q.cache.Invalidate(KeyRooms)
	return nil
}

func (q *Queries) scheduleChanged(s domain.Schedule) {
	q.cache.Invalidate(KeySchedules)
	q.cache.Invalidate(roomapi.Key{"rooms", itoa(s.RoomID)})
}

func (q *Queries) UpdateUserStatus(ctx context.Context, id int64, active bool) (domain.User, error) {
	u, err := q.api.UpdateUserStatus(ctx, id, active)
	if err != nil {
		return u, err
	}
	q.cache.Invalidate(KeyUsers)
	return u, nil
}

func (q *Queries) UpdateUser(ctx context.Context, id int64, req domain.UpdateUserRequest) (domain.User, error) {
	u, err := q.api.UpdateUser(ctx, id, req)
	if err != nil {
		return u, err
	}
	q.cache.Invalidate(KeyUsers)
	q.cache.Invalidate(KeyProfile)
	return u, nil
}

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	if err := q.api.DeleteUser(ctx, id); err != nil {
		return err
	}
	q.cache.Invalidate(KeyUsers)
	return nil
}

func (q *Queries) CreateUser(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	u, err := q.api.CreateUser(ctx, req)
	if err != nil {
		return u, err
	}
	q.cache.Invalidate(KeyUsers)
	return u, nil
}

func (q *Queries) UpdateRoomAvailability(ctx context.Context, id int64, available bool) (domain.Room, error) {
	rm, err := q.api.UpdateRoomAvailability(ctx, id, available)
	if err != nil {
		return rm, err
	}
	q.cache.Invalidate(KeyRooms)
	return rm, nil
}

func (q *Queries) CreateRoom(ctx context.Context, req domain.CreateRoomRequest) (domain.Room, error) {
	rm, err := q.api.CreateRoom(ctx, req)
	if err != nil {
		return rm, err
	}
	q.cache.Invalidate(KeyRooms)
	return rm, nil
}

func (q *Queries) UpdateRoom(ctx context.Context, id int64, req domain.UpdateRoomRequest) (domain.Room, error) {
	rm, err := q.api.UpdateRoom(ctx, id, req)
	if err != nil {
		return rm, err
	}
	q.cache.Invalidate(KeyRooms)
	return rm, nil
}

// DeleteRoom also drops schedules, which the backend removes along with the room.
func (q *Queries) DeleteRoom(ctx context.Context, id int64) error {
	if err := q.api.DeleteRoom(ctx, id); err != nil {
		return err
	}
	q.cache.Invalidate(KeyRooms)
	q.cache.Invalidate(KeySchedules)
	return nil
}

func (q *Queries) CreateLog(ctx context.Context, module domain.LogModule, activity string) (domain.Log, error) {
	l, err := q.api.CreateLog(ctx, module, activity)
	if err != nil {
		return l, err
	}
	q.cache.Invalidate(KeyLogs)
	return l, nil
}
