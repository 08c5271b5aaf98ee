// Package booking drives the slot picking flow: pick an open room, present the day's slots with
// already booked ones disabled, then create the schedule for the chosen slot.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goold/roomsched/libs/availability"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/roomapi"
	"github.com/google/uuid"
)

var (
	ErrRoomUnavailable = errors.New("room is not available for booking")
	ErrNoSelection     = errors.New("no time slot selected")
	// ErrSlotTaken wraps the backend's conflict answer. It is final for the draft's selection.
	ErrSlotTaken = errors.New("time slot already booked")
)

type API interface {
	Room(ctx context.Context, id int64) (domain.Room, error)
	RoomSchedules(ctx context.Context, roomID int64, from, to time.Time) ([]domain.Schedule, error)
	CreateSchedule(ctx context.Context, req domain.CreateScheduleRequest, idempotencyKey string) (domain.Schedule, error)
	UpdateSchedule(ctx context.Context, id int64, req domain.UpdateScheduleRequest) (domain.Schedule, error)
}

type Booker struct {
	api API
	loc *time.Location
	now func() time.Time
}

// New returns a Booker that interprets slot times in loc.
func New(api API, loc *time.Location) *Booker {
	if loc == nil {
		loc = time.Local
	}
	return &Booker{api: api, loc: loc, now: time.Now}
}

// Draft is one booking in progress for a room and day.
type Draft struct {
	Room       domain.Room
	Day        time.Time
	Configured bool

	picker   *availability.Picker
	disabled []string
	key      string
}

func (d *Draft) Slots() []availability.TimeSlot { return d.picker.Slots() }

// Periods splits the slots for a morning/afternoon presentation.
func (d *Draft) Periods() (morning, afternoon []availability.TimeSlot) {
	return availability.SplitByPeriod(d.picker.Slots())
}

// Select picks t. Unknown or unavailable times are refused and keep the previous selection.
func (d *Draft) Select(t string) bool { return d.picker.Select(t) }

func (d *Draft) Selected() (string, bool) { return d.picker.Selected() }

// Open loads roomID and its bookings on day and returns a draft with the marked slots. Slots that
// start before now are disabled as well.
func (b *Booker) Open(ctx context.Context, roomID int64, day time.Time) (*Draft, error) {
	rm, err := b.api.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !rm.Availability {
		return nil, ErrRoomUnavailable
	}
	cfg, err := rm.Config()
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", rm.ID, err)
	}

	y, m, dd := day.In(b.loc).Date()
	start := time.Date(y, m, dd, 0, 0, 0, 0, b.loc)
	schedules, err := b.api.RoomSchedules(ctx, rm.ID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	bookings := make([]availability.Booking, 0, len(schedules))
	for _, s := range schedules {
		bookings = append(bookings, availability.Booking{At: s.ScheduleDate, Cancelled: s.Status == domain.StatusCancelled})
	}

	slots := availability.SlotsFor(cfg)
	disabled := availability.DisabledTimes(bookings, start, b.loc)
	now := b.now()
	for _, t := range slots {
		c, err := availability.ParseClock(t)
		if err == nil && !c.On(start, b.loc).After(now) {
			disabled = append(disabled, t)
		}
	}

	return &Draft{
		Room:       rm,
		Day:        start,
		Configured: cfg != nil,
		picker:     availability.NewPicker(availability.MarkAvailability(slots, disabled)),
		disabled:   disabled,
		key:        uuid.NewString(),
	}, nil
}

// Confirm creates the schedule for the selected slot. A repeated Confirm of the same draft reuses
// its idempotency key. On a conflict the slot is marked unavailable in the draft, the selection is
// cleared and ErrSlotTaken is returned; nothing is retried.
func (b *Booker) Confirm(ctx context.Context, d *Draft) (domain.Schedule, error) {
	t, at, err := b.selection(d)
	if err != nil {
		return domain.Schedule{}, err
	}
	s, err := b.api.CreateSchedule(ctx, domain.CreateScheduleRequest{RoomID: d.Room.ID, ScheduleDate: at}, d.key)
	if err != nil {
		return domain.Schedule{}, d.rejected(t, err)
	}
	d.key = uuid.NewString()
	d.picker.Clear()
	return s, nil
}

// Reschedule moves schedule id to the draft's room and selected slot. A conflict is handled as
// in Confirm.
func (b *Booker) Reschedule(ctx context.Context, id int64, d *Draft) (domain.Schedule, error) {
	t, at, err := b.selection(d)
	if err != nil {
		return domain.Schedule{}, err
	}
	roomID := d.Room.ID
	s, err := b.api.UpdateSchedule(ctx, id, domain.UpdateScheduleRequest{RoomID: &roomID, ScheduleDate: &at})
	if err != nil {
		return domain.Schedule{}, d.rejected(t, err)
	}
	d.picker.Clear()
	return s, nil
}

// selection returns the selected slot and its instant on the draft's day in the booking location.
func (b *Booker) selection(d *Draft) (string, time.Time, error) {
	t, ok := d.picker.Selected()
	if !ok {
		return "", time.Time{}, ErrNoSelection
	}
	c, err := availability.ParseClock(t)
	if err != nil {
		return "", time.Time{}, err
	}
	return t, c.On(d.Day, b.loc), nil
}

// rejected disables t after a conflict answer and rotates the idempotency key. Other errors
// leave the draft as it was.
func (d *Draft) rejected(t string, err error) error {
	var apiErr *roomapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		return err
	}
	d.disabled = append(d.disabled, t)
	d.picker.Reset(availability.Remark(d.picker.Slots(), d.disabled))
	d.key = uuid.NewString()
	return fmt.Errorf("%w: %w", ErrSlotTaken, err)
}
