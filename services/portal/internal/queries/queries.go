// Package queries wraps the roomsched API with the portal's cached reads and the mutations that
// invalidate them.
package queries

import (
	"context"
	"strconv"
	"time"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/roomapi"
)

var (
	KeyProfile   = roomapi.Key{"profile"}
	KeyUsers     = roomapi.Key{"users"}
	KeyRooms     = roomapi.Key{"rooms"}
	KeySchedules = roomapi.Key{"schedules"}
	KeyLogs      = roomapi.Key{"logs"}
)

var (
	usersOptions     = roomapi.QueryOptions{StaleTime: 2 * time.Minute, Retry: 1, RetryDelay: time.Second}
	schedulesOptions = roomapi.QueryOptions{StaleTime: 2 * time.Minute}
	mineOptions      = roomapi.QueryOptions{StaleTime: time.Minute}
	roomsOptions     = roomapi.QueryOptions{StaleTime: time.Minute}
	slotsOptions     = roomapi.QueryOptions{StaleTime: 15 * time.Second}
	logsOptions      = roomapi.QueryOptions{StaleTime: 30 * time.Second}
)

type Queries struct {
	api   *roomapi.Client
	cache *roomapi.QueryCache
}

func New(api *roomapi.Client, cache *roomapi.QueryCache) *Queries {
	if cache == nil {
		cache = roomapi.NewQueryCache()
	}
	return &Queries{api: api, cache: cache}
}

// Invalidate marks every cached read under prefix stale.
func (q *Queries) Invalidate(prefix roomapi.Key) {
	q.cache.Invalidate(prefix)
}

// Reset drops everything, for example after logout.
func (q *Queries) Reset() {
	q.cache.Reset()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func page(p, limit int) []string {
	return []string{strconv.Itoa(p), strconv.Itoa(limit)}
}

func (q *Queries) Profile(ctx context.Context) (domain.User, error) {
	return roomapi.Fetch(ctx, q.cache, KeyProfile, mineOptions, q.api.Profile)
}

func (q *Queries) Users(ctx context.Context) ([]domain.User, error) {
	return roomapi.Fetch(ctx, q.cache, KeyUsers, usersOptions, q.api.Users)
}

func (q *Queries) Rooms(ctx context.Context) ([]domain.Room, error) {
	return roomapi.Fetch(ctx, q.cache, roomapi.Key{"rooms", "all"}, roomsOptions, q.api.Rooms)
}

func (q *Queries) AvailableRooms(ctx context.Context) ([]domain.Room, error) {
	return roomapi.Fetch(ctx, q.cache, roomapi.Key{"rooms", "available"}, roomsOptions, q.api.AvailableRooms)
}

func (q *Queries) Room(ctx context.Context, id int64) (domain.Room, error) {
	return roomapi.Fetch(ctx, q.cache, roomapi.Key{"rooms", itoa(id)}, roomsOptions, func(ctx context.Context) (domain.Room, error) {
		return q.api.Room(ctx, id)
	})
}

// RoomSchedules reads the bookings of a room in [from, to). Booking views need current data, so
// the result is cached only briefly.
func (q *Queries) RoomSchedules(ctx context.Context, roomID int64, from, to time.Time) ([]domain.Schedule, error) {
	key := roomapi.Key{"rooms", itoa(roomID), "schedules", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)}
	return roomapi.Fetch(ctx, q.cache, key, slotsOptions, func(ctx context.Context) ([]domain.Schedule, error) {
		return q.api.RoomSchedules(ctx, roomID, from, to)
	})
}

func (q *Queries) RoomSlots(ctx context.Context, roomID int64, date string) (domain.RoomSlots, error) {
	key := roomapi.Key{"rooms", itoa(roomID), "slots", date}
	return roomapi.Fetch(ctx, q.cache, key, slotsOptions, func(ctx context.Context) (domain.RoomSlots, error) {
		return q.api.RoomSlots(ctx, roomID, date)
	})
}

func (q *Queries) Schedules(ctx context.Context, p, limit int) (domain.ScheduleResponse, error) {
	key := append(roomapi.Key{"schedules", "all"}, page(p, limit)...)
	return roomapi.Fetch(ctx, q.cache, key, schedulesOptions, func(ctx context.Context) (domain.ScheduleResponse, error) {
		return q.api.Schedules(ctx, p, limit)
	})
}

func (q *Queries) MySchedules(ctx context.Context, p, limit int) (domain.ScheduleResponse, error) {
	key := append(roomapi.Key{"schedules", "my"}, page(p, limit)...)
	return roomapi.Fetch(ctx, q.cache, key, mineOptions, func(ctx context.Context) (domain.ScheduleResponse, error) {
		return q.api.MySchedules(ctx, p, limit)
	})
}

func (q *Queries) UpcomingSchedules(ctx context.Context) ([]domain.Schedule, error) {
	return roomapi.Fetch(ctx, q.cache, roomapi.Key{"schedules", "upcoming"}, mineOptions, q.api.UpcomingSchedules)
}

func (q *Queries) Logs(ctx context.Context, p, limit int) (domain.LogsResponse, error) {
	key := append(roomapi.Key{"logs", "all"}, page(p, limit)...)
	return roomapi.Fetch(ctx, q.cache, key, logsOptions, func(ctx context.Context) (domain.LogsResponse, error) {
		return q.api.Logs(ctx, p, limit)
	})
}

func (q *Queries) MyLogs(ctx context.Context, p, limit int) (domain.LogsResponse, error) {
	key := append(roomapi.Key{"logs", "my"}, page(p, limit)...)
	return roomapi.Fetch(ctx, q.cache, key, logsOptions, func(ctx context.Context) (domain.LogsResponse, error) {
		return q.api.MyLogs(ctx, p, limit)
	})
}

func (q *Queries) LogsByModule(ctx context.Context, module domain.LogModule, p, limit int) (domain.LogsResponse, error) {
	key := append(roomapi.Key{"logs", "module", string(module)}, page(p, limit)...)
	return roomapi.Fetch(ctx, q.cache, key, logsOptions, func(ctx context.Context) (domain.LogsResponse, error) {
		return q.api.LogsByModule(ctx, module, p, limit)
	})
}
