package booking

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/roomapi"
)

type fakeAPI struct {
	room      domain.Room
	schedules []domain.Schedule
	createErr error
	created   []domain.CreateScheduleRequest
	keys      []string
	updateErr error
	updated   map[int64]domain.UpdateScheduleRequest
}

func (f *fakeAPI) Room(_ context.Context, id int64) (domain.Room, error) {
	if id != f.room.ID {
		return domain.Room{}, &roomapi.APIError{Kind: roomapi.KindConflict, Status: http.StatusNotFound, Message: "room not found"}
	}
	return f.room, nil
}

func (f *fakeAPI) RoomSchedules(_ context.Context, _ int64, from, to time.Time) ([]domain.Schedule, error) {
	var out []domain.Schedule
	for _, s := range f.schedules {
		if !s.ScheduleDate.Before(from) && s.ScheduleDate.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateSchedule(_ context.Context, req domain.CreateScheduleRequest, key string) (domain.Schedule, error) {
	f.keys = append(f.keys, key)
	if f.createErr != nil {
		return domain.Schedule{}, f.createErr
	}
	f.created = append(f.created, req)
	s := domain.Schedule{ID: int64(len(f.created)), RoomID: req.RoomID, ScheduleDate: req.ScheduleDate, Status: domain.StatusPending}
	f.schedules = append(f.schedules, s)
	return s, nil
}

func (f *fakeAPI) UpdateSchedule(_ context.Context, id int64, req domain.UpdateScheduleRequest) (domain.Schedule, error) {
	if f.updateErr != nil {
		return domain.Schedule{}, f.updateErr
	}
	if f.updated == nil {
		f.updated = map[int64]domain.UpdateScheduleRequest{}
	}
	f.updated[id] = req
	return domain.Schedule{ID: id, RoomID: *req.RoomID, ScheduleDate: *req.ScheduleDate, Status: domain.StatusPending}, nil
}

func ptr[T any](v T) *T { return &v }

func newBooker(api API) *Booker {
	b := New(api, time.UTC)
	b.now = func() time.Time { return time.Date(2030, 1, 1, 9, 10, 0, 0, time.UTC) }
	return b
}

func TestOpenMarksBookedAndPastSlots(t *testing.T) {
	api := &fakeAPI{
		room: domain.Room{ID: 7, Availability: true, StartTime: ptr("08:00"), EndTime: ptr("10:00"), IntervalMinutes: ptr(30)},
		schedules: []domain.Schedule{
			{RoomID: 7, ScheduleDate: time.Date(2030, 1, 1, 9, 30, 0, 0, time.UTC), Status: domain.StatusConfirmed},
			{RoomID: 7, ScheduleDate: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC), Status: domain.StatusCancelled},
		},
	}
	d, err := newBooker(api).Open(context.Background(), 7, time.Date(2030, 1, 1, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := map[string]bool{"08:00": false, "08:30": false, "09:00": false, "09:30": false}
	slots := d.Slots()
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %+v", len(want), slots)
	}
	for _, s := range slots {
		if s.Available != want[s.Time] {
			t.Fatalf("slot %s: available=%v", s.Time, s.Available)
		}
	}

	d, err = newBooker(api).Open(context.Background(), 7, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range d.Slots() {
		if !s.Available {
			t.Fatalf("next day slot %s should be open", s.Time)
		}
	}
}

func TestOpenRejectsUnavailableRoom(t *testing.T) {
	api := &fakeAPI{room: domain.Room{ID: 1, Availability: false}}
	if _, err := newBooker(api).Open(context.Background(), 1, time.Now()); !errors.Is(err, ErrRoomUnavailable) {
		t.Fatalf("expected ErrRoomUnavailable, got %v", err)
	}
}

func TestSelectRejectsUnavailable(t *testing.T) {
	api := &fakeAPI{room: domain.Room{ID: 1, Availability: true}}
	d, err := newBooker(api).Open(context.Background(), 1, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if d.Configured {
		t.Fatal("room without hours must report configured=false")
	}
	if d.Select("08:30") {
		t.Fatal("past slot must not be selectable")
	}
	if d.Select("12:15") {
		t.Fatal("unknown slot must not be selectable")
	}
	if !d.Select("10:00") {
		t.Fatal("open slot must be selectable")
	}
	if d.Select("08:00") {
		t.Fatal("refused select must not change the selection")
	}
	if got, _ := d.Selected(); got != "10:00" {
		t.Fatalf("selection changed to %q", got)
	}
}

func TestConfirmBuildsTimestampInLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	api := &fakeAPI{room: domain.Room{ID: 3, Availability: true}}
	b := New(api, loc)
	b.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, loc) }
	d, err := b.Open(context.Background(), 3, time.Date(2030, 1, 2, 12, 0, 0, 0, loc))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Confirm(context.Background(), d); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	d.Select("14:30")
	s, err := b.Confirm(context.Background(), d)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	want := time.Date(2030, 1, 2, 17, 30, 0, 0, time.UTC)
	if !s.ScheduleDate.Equal(want) {
		t.Fatalf("expected %s, got %s", want, s.ScheduleDate)
	}
}

func TestConfirmConflictIsTerminal(t *testing.T) {
	api := &fakeAPI{
		room:      domain.Room{ID: 3, Availability: true},
		createErr: &roomapi.APIError{Kind: roomapi.KindConflict, Status: http.StatusConflict, Message: "time slot already booked"},
	}
	b := newBooker(api)
	d, err := b.Open(context.Background(), 3, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	d.Select("11:00")
	_, err = b.Confirm(context.Background(), d)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if len(api.keys) != 1 {
		t.Fatalf("conflict must not be retried, got %d attempts", len(api.keys))
	}
	if len(api.schedules) != 0 {
		t.Fatal("no schedule may be recorded on conflict")
	}
	if _, ok := d.Selected(); ok {
		t.Fatal("selection must be cleared")
	}
	for _, s := range d.Slots() {
		if s.Time == "11:00" && s.Available {
			t.Fatal("conflicting slot must be disabled")
		}
	}
}

func TestConfirmNetworkErrorKeepsIdempotencyKey(t *testing.T) {
	api := &fakeAPI{
		room:      domain.Room{ID: 3, Availability: true},
		createErr: &roomapi.APIError{Kind: roomapi.KindNetwork, Message: "connection refused"},
	}
	b := newBooker(api)
	d, err := b.Open(context.Background(), 3, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	d.Select("11:00")
	if _, err := b.Confirm(context.Background(), d); !roomapi.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	api.createErr = nil
	if _, err := b.Confirm(context.Background(), d); err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if len(api.keys) != 2 || api.keys[0] != api.keys[1] {
		t.Fatalf("user-initiated retry must reuse the key: %v", api.keys)
	}
}

func TestRescheduleMovesToSelectedSlot(t *testing.T) {
	api := &fakeAPI{room: domain.Room{ID: 3, Availability: true}}
	b := newBooker(api)
	d, err := b.Open(context.Background(), 3, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Reschedule(context.Background(), 8, d); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	d.Select("15:30")
	s, err := b.Reschedule(context.Background(), 8, d)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	want := time.Date(2030, 1, 2, 15, 30, 0, 0, time.UTC)
	req := api.updated[8]
	if req.RoomID == nil || *req.RoomID != 3 || req.ScheduleDate == nil || !req.ScheduleDate.Equal(want) {
		t.Fatalf("unexpected update request %+v", req)
	}
	if !s.ScheduleDate.Equal(want) {
		t.Fatalf("unexpected schedule %+v", s)
	}
	if len(api.created) != 0 {
		t.Fatal("reschedule must not create a schedule")
	}
}

func TestRescheduleConflictDisablesSlot(t *testing.T) {
	api := &fakeAPI{
		room:      domain.Room{ID: 3, Availability: true},
		updateErr: &roomapi.APIError{Kind: roomapi.KindConflict, Status: http.StatusConflict, Message: "time slot already booked"},
	}
	b := newBooker(api)
	d, err := b.Open(context.Background(), 3, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	d.Select("10:00")
	if _, err := b.Reschedule(context.Background(), 8, d); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if d.Select("10:00") {
		t.Fatal("conflicting slot must no longer be selectable")
	}
}
