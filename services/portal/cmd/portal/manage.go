package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/goold/roomsched/libs/config"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/services/portal/internal/app"
)

// roomFlags holds the room fields shared by room-create and room-update. Only flags given on the
// command line end up in a request.
type roomFlags struct {
	fs        *flag.FlagSet
	id        *int64
	number    *string
	start     *string
	end       *string
	interval  *int
	available *bool
}

func newRoomFlags(name string) *roomFlags {
	fs := newFlags(name)
	return &roomFlags{
		fs:        fs,
		id:        fs.Int64("id", 0, "room id"),
		number:    fs.String("number", "", "room number"),
		start:     fs.String("start", "", "first slot (HH:MM)"),
		end:       fs.String("end", "", "closing time (HH:MM), exclusive"),
		interval:  fs.Int("interval", 0, "slot length in minutes"),
		available: fs.Bool("available", true, "open for booking"),
	}
}

func (f *roomFlags) parse(args []string) (map[string]bool, error) {
	if err := f.fs.Parse(args); err != nil {
		return nil, err
	}
	set := map[string]bool{}
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set, nil
}

func (f *roomFlags) createRequest(set map[string]bool) (domain.CreateRoomRequest, error) {
	if *f.number == "" {
		return domain.CreateRoomRequest{}, fmt.Errorf("-number is required")
	}
	req := domain.CreateRoomRequest{Number: *f.number}
	if set["start"] {
		req.StartTime = f.start
	}
	if set["end"] {
		req.EndTime = f.end
	}
	if set["interval"] {
		req.IntervalMinutes = f.interval
	}
	return req, nil
}

func (f *roomFlags) updateRequest(set map[string]bool) (domain.UpdateRoomRequest, error) {
	var req domain.UpdateRoomRequest
	if set["number"] {
		req.Number = f.number
	}
	if set["available"] {
		req.Availability = f.available
	}
	if set["start"] {
		req.StartTime = f.start
	}
	if set["end"] {
		req.EndTime = f.end
	}
	if set["interval"] {
		req.IntervalMinutes = f.interval
	}
	if req == (domain.UpdateRoomRequest{}) {
		return req, fmt.Errorf("nothing to update")
	}
	return req, nil
}

func cmdRoomCreate(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	f := newRoomFlags("room-create")
	set, err := f.parse(args)
	if err != nil {
		return err
	}
	req, err := f.createRequest(set)
	if err != nil {
		return err
	}
	rm, err := a.Queries.CreateRoom(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "room %d created with number %s\n", rm.ID, rm.Number)
	return nil
}

func cmdRoomUpdate(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	f := newRoomFlags("room-update")
	set, err := f.parse(args)
	if err != nil {
		return err
	}
	if err := requireID("id", *f.id); err != nil {
		return err
	}
	req, err := f.updateRequest(set)
	if err != nil {
		return err
	}
	rm, err := a.Queries.UpdateRoom(ctx, *f.id, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "room %d updated (number %s, available=%v)\n", rm.ID, rm.Number, rm.Availability)
	return nil
}

func cmdRoomDelete(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("room-delete")
	id := fs.Int64("id", 0, "room id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	if err := a.Queries.DeleteRoom(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "room %d deleted\n", *id)
	return nil
}

func cmdUserCreate(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("user-create")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email")
	password := fs.String("password", config.String("PORTAL_PASSWORD", ""), "initial password")
	kind := fs.String("type", string(domain.AccountCustomer), "customer or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t := domain.AccountType(*kind)
	if !t.Valid() {
		return fmt.Errorf("-type must be customer or admin")
	}
	u, err := a.Queries.CreateUser(ctx, domain.CreateUserRequest{
		FirstName:   *first,
		LastName:    *last,
		Email:       *email,
		Password:    *password,
		AccountType: t,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d created for %s (%s)\n", u.ID, u.Email, u.AccountType)
	return nil
}

func cmdUserDelete(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("user-delete")
	id := fs.Int64("id", 0, "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	if u, _ := a.Session.User(); u.ID == *id {
		return fmt.Errorf("you cannot delete your own account")
	}
	if err := a.Queries.DeleteUser(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d deleted\n", *id)
	return nil
}

// cmdReschedule moves a schedule to another slot, in the same room unless -room is given. The
// backend only lets the owner or an administrator do this.
func cmdReschedule(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("reschedule")
	id := fs.Int64("id", 0, "schedule id")
	roomID := fs.Int64("room", 0, "new room id, default the current one")
	date := fs.String("date", "", "day (YYYY-MM-DD), default today")
	at := fs.String("time", "", "slot start (HH:MM)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	if *roomID == 0 {
		s, err := a.API.Schedule(ctx, *id)
		if err != nil {
			return err
		}
		*roomID = s.RoomID
	}
	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	d, err := a.Booking.Open(ctx, *roomID, day)
	if err != nil {
		return err
	}
	if !d.Select(*at) {
		printSlots(out, d.Slots())
		return fmt.Errorf("%q is not an available slot", *at)
	}
	s, err := a.Booking.Reschedule(ctx, *id, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schedule %d moved to %s (%s)\n", s.ID, s.ScheduleDate.Format(time.RFC3339), s.Status)
	return nil
}

func cmdScheduleDelete(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("schedule-delete")
	id := fs.Int64("id", 0, "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	if err := a.Queries.DeleteSchedule(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "schedule %d deleted\n", *id)
	return nil
}

func cmdLog(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("log")
	module := fs.String("module", string(domain.ModuleAccount), "Account, Schedule or Auth")
	activity := fs.String("activity", "", "what happened")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m := domain.LogModule(*module)
	if !m.Valid() {
		return fmt.Errorf("-module must be Account, Schedule or Auth")
	}
	if *activity == "" {
		return fmt.Errorf("-activity is required")
	}
	l, err := a.Queries.CreateLog(ctx, m, *activity)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged %s: %s\n", l.Module, l.ActivityType)
	return nil
}
