// Package admin holds the administrator toggles. Each toggle shows its new value at once and
// rolls back when the backend rejects it.
package admin

import (
	"context"
	"errors"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/optimistic"
)

var ErrSelfStatus = errors.New("you cannot change your own status")

type API interface {
	UpdateUserStatus(ctx context.Context, id int64, active bool) (domain.User, error)
	UpdateUser(ctx context.Context, id int64, req domain.UpdateUserRequest) (domain.User, error)
	UpdateScheduleStatus(ctx context.Context, id int64, status domain.ScheduleStatus) (domain.Schedule, error)
	UpdateRoomAvailability(ctx context.Context, id int64, available bool) (domain.Room, error)
}

// Console is the admin view state for users, schedules and rooms.
type Console struct {
	api  API
	self func() (domain.User, bool)

	UserStatus       *optimistic.Store[int64, bool]
	AccountType      *optimistic.Store[int64, domain.AccountType]
	ScheduleStatus   *optimistic.Store[int64, domain.ScheduleStatus]
	RoomAvailability *optimistic.Store[int64, bool]
}

// New builds a console. self reports the signed-in user; it guards against self toggles.
func New(api API, self func() (domain.User, bool)) *Console {
	return &Console{
		api:              api,
		self:             self,
		UserStatus:       optimistic.New[int64, bool](),
		AccountType:      optimistic.New[int64, domain.AccountType](),
		ScheduleStatus:   optimistic.New[int64, domain.ScheduleStatus](),
		RoomAvailability: optimistic.New[int64, bool](),
	}
}

// LoadUsers seeds the user toggles from a fresh read.
func (c *Console) LoadUsers(users []domain.User) {
	for _, u := range users {
		c.UserStatus.Seed(u.ID, u.Status)
		c.AccountType.Seed(u.ID, u.AccountType)
	}
}

func (c *Console) LoadSchedules(schedules []domain.Schedule) {
	for _, s := range schedules {
		c.ScheduleStatus.Seed(s.ID, s.Status)
	}
}

func (c *Console) LoadRooms(rooms []domain.Room) {
	for _, rm := range rooms {
		c.RoomAvailability.Seed(rm.ID, rm.Availability)
	}
}

// Close detaches every store; results of requests still in flight are ignored.
func (c *Console) Close() {
	c.UserStatus.Detach()
	c.AccountType.Detach()
	c.ScheduleStatus.Detach()
	c.RoomAvailability.Detach()
}

// SetUserActive toggles a user's status. Changing one's own status is refused before any request.
func (c *Console) SetUserActive(ctx context.Context, id int64, active bool) (optimistic.Result[bool], error) {
	if me, ok := c.self(); ok && me.ID == id {
		return optimistic.Result[bool]{}, ErrSelfStatus
	}
	res := c.UserStatus.Apply(ctx, id, active, func(ctx context.Context, v bool) error {
		_, err := c.api.UpdateUserStatus(ctx, id, v)
		return err
	})
	return res, res.Err
}

func (c *Console) SetAccountType(ctx context.Context, id int64, t domain.AccountType) (optimistic.Result[domain.AccountType], error) {
	res := c.AccountType.Apply(ctx, id, t, func(ctx context.Context, v domain.AccountType) error {
		_, err := c.api.UpdateUser(ctx, id, domain.UpdateUserRequest{AccountType: &v})
		return err
	})
	return res, res.Err
}

// SetScheduleStatus changes a schedule's status. Transitions the lifecycle forbids are refused
// locally when the current status is known.
func (c *Console) SetScheduleStatus(ctx context.Context, id int64, to domain.ScheduleStatus) (optimistic.Result[domain.ScheduleStatus], error) {
	if from, ok := c.ScheduleStatus.Value(id); ok {
		if err := domain.CanTransition(from, to, domain.Actor{Admin: true}); err != nil {
			return optimistic.Result[domain.ScheduleStatus]{Value: from}, err
		}
	}
	res := c.ScheduleStatus.Apply(ctx, id, to, func(ctx context.Context, v domain.ScheduleStatus) error {
		_, err := c.api.UpdateScheduleStatus(ctx, id, v)
		return err
	})
	return res, res.Err
}

func (c *Console) Approve(ctx context.Context, id int64) (optimistic.Result[domain.ScheduleStatus], error) {
	return c.SetScheduleStatus(ctx, id, domain.StatusConfirmed)
}

func (c *Console) SetRoomAvailability(ctx context.Context, id int64, available bool) (optimistic.Result[bool], error) {
	res := c.RoomAvailability.Apply(ctx, id, available, func(ctx context.Context, v bool) error {
		_, err := c.api.UpdateRoomAvailability(ctx, id, v)
		return err
	})
	return res, res.Err
}
