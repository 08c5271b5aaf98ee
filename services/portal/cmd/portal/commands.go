package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goold/roomsched/libs/availability"
	"github.com/goold/roomsched/libs/config"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/services/portal/internal/app"
)

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func requireID(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func cmdLogin(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", config.String("PORTAL_PASSWORD", ""), "password (or PORTAL_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s (%s)\n", u.FullName(), u.AccountType)
	return nil
}

func cmdLogout(ctx context.Context, a *app.App, out io.Writer, _ []string) error {
	if err := a.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "logged out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app.App, out io.Writer, _ []string) error {
	u, err := a.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s <%s> %s active=%v\n", u.FullName(), u.Email, u.AccountType, u.Status)
	if addr := domain.FormatAddress(u.Address); addr != "" {
		fmt.Fprintln(out, addr)
	}
	return nil
}

func cmdSignup(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("signup")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email")
	password := fs.String("password", config.String("PORTAL_PASSWORD", ""), "password")
	zip := fs.String("cep", "", "postal code; street, district, city and state are looked up")
	number := fs.String("number", "", "street number (with -cep)")
	complement := fs.String("complement", "", "address complement (with -cep)")
	freeform := fs.String("address", "", "free-form address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req := domain.CreateUserRequest{FirstName: *first, LastName: *last, Email: *email, Password: *password}
	switch {
	case *zip != "":
		addr, err := a.CEP.Lookup(ctx, *zip)
		if err != nil {
			return err
		}
		addr.Number = *number
		if *complement != "" {
			addr.Complement = *complement
		}
		req.Address = addr
	case *freeform != "":
		req.Address = domain.FreeformAddress(*freeform)
	}
	u, err := a.API.Signup(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "account %d created for %s\n", u.ID, u.Email)
	return nil
}

func cmdRooms(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("rooms")
	onlyAvailable := fs.Bool("available", false, "only rooms open for booking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	load := a.Queries.Rooms
	if *onlyAvailable {
		load = a.Queries.AvailableRooms
	}
	rooms, err := load(ctx)
	if err != nil {
		return err
	}
	tw := table(out)
	fmt.Fprintln(tw, "ID\tNUMBER\tAVAILABLE\tHOURS")
	for _, rm := range rooms {
		hours := "default"
		if rm.StartTime != nil && rm.EndTime != nil && rm.IntervalMinutes != nil {
			hours = fmt.Sprintf("%s-%s every %dm", *rm.StartTime, *rm.EndTime, *rm.IntervalMinutes)
		}
		fmt.Fprintf(tw, "%d\t%s\t%v\t%s\n", rm.ID, rm.Number, rm.Availability, hours)
	}
	return tw.Flush()
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

func printSlots(out io.Writer, slots []availability.TimeSlot) {
	morning, afternoon := availability.SplitByPeriod(slots)
	for _, period := range []struct {
		name  string
		slots []availability.TimeSlot
	}{{"morning", morning}, {"afternoon", afternoon}} {
		if len(period.slots) == 0 {
			continue
		}
		parts := make([]string, 0, len(period.slots))
		for _, s := range period.slots {
			if s.Available {
				parts = append(parts, s.Time)
			} else {
				parts = append(parts, "("+s.Time+")")
			}
		}
		fmt.Fprintf(out, "%-10s %s\n", period.name+":", strings.Join(parts, " "))
	}
}

func cmdSlots(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("slots")
	roomID := fs.Int64("room", 0, "room id")
	date := fs.String("date", "", "day (YYYY-MM-DD), default today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("room", *roomID); err != nil {
		return err
	}
	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	d, err := a.Booking.Open(ctx, *roomID, day)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "room %s on %s (booked or past times in parentheses)\n", d.Room.Number, d.Day.Format(time.DateOnly))
	printSlots(out, d.Slots())
	return nil
}

func cmdBook(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("book")
	roomID := fs.Int64("room", 0, "room id")
	date := fs.String("date", "", "day (YYYY-MM-DD), default today")
	at := fs.String("time", "", "slot start (HH:MM)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("room", *roomID); err != nil {
		return err
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
	s, err := a.Booking.Confirm(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schedule %d created for %s (%s)\n", s.ID, s.ScheduleDate.Format(time.RFC3339), s.Status)
	return nil
}

func printSchedules(out io.Writer, items []domain.Schedule) error {
	tw := table(out)
	fmt.Fprintln(tw, "ID\tWHEN\tROOM\tSTATUS\tUSER")
	for _, s := range items {
		room := fmt.Sprint(s.RoomID)
		if s.Room != nil {
			room = s.Room.Number
		}
		user := ""
		if s.User != nil {
			user = s.User.Email
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.ScheduleDate.Local().Format("2006-01-02 15:04"), room, s.Status, user)
	}
	return tw.Flush()
}

func cmdMy(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("my")
	upcoming := fs.Bool("upcoming", false, "only future, non-cancelled schedules")
	page := fs.Int("page", 1, "page")
	limit := fs.Int("limit", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *upcoming {
		items, err := a.Queries.UpcomingSchedules(ctx)
		if err != nil {
			return err
		}
		return printSchedules(out, items)
	}
	resp, err := a.Queries.MySchedules(ctx, *page, *limit)
	if err != nil {
		return err
	}
	if err := printSchedules(out, resp.Schedules); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d of %d (%d total)\n", *page, resp.TotalPages, resp.Total)
	return nil
}

func cmdCancel(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("cancel")
	id := fs.Int64("id", 0, "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	s, err := a.Queries.CancelSchedule(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schedule %d is %s\n", s.ID, s.Status)
	return nil
}

func cmdApprove(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("approve")
	id := fs.Int64("id", 0, "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	s, err := a.API.Schedule(ctx, *id)
	if err != nil {
		return err
	}
	a.Admin.LoadSchedules([]domain.Schedule{s})
	res, err := a.Admin.Approve(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schedule %d is %s\n", *id, res.Value)
	return nil
}

func cmdUsers(ctx context.Context, a *app.App, out io.Writer, _ []string) error {
	users, err := a.Queries.Users(ctx)
	if err != nil {
		return err
	}
	tw := table(out)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tTYPE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\n", u.ID, u.FullName(), u.Email, u.AccountType, u.Status)
	}
	return tw.Flush()
}

func loadUsers(ctx context.Context, a *app.App) error {
	users, err := a.Queries.Users(ctx)
	if err != nil {
		return err
	}
	a.Admin.LoadUsers(users)
	return nil
}

func cmdUserStatus(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("user-status")
	id := fs.Int64("id", 0, "user id")
	active := fs.Bool("active", true, "new status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	if err := loadUsers(ctx, a); err != nil {
		return err
	}
	res, err := a.Admin.SetUserActive(ctx, *id, *active)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d active=%v\n", *id, res.Value)
	return nil
}

func cmdUserType(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("user-type")
	id := fs.Int64("id", 0, "user id")
	kind := fs.String("type", "", "customer or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	t := domain.AccountType(*kind)
	if !t.Valid() {
		return fmt.Errorf("-type must be customer or admin")
	}
	if err := loadUsers(ctx, a); err != nil {
		return err
	}
	res, err := a.Admin.SetAccountType(ctx, *id, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d is now %s\n", *id, res.Value)
	return nil
}

func cmdRoomAvailability(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("room-availability")
	id := fs.Int64("id", 0, "room id")
	available := fs.Bool("available", true, "open for booking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID("id", *id); err != nil {
		return err
	}
	rooms, err := a.Queries.Rooms(ctx)
	if err != nil {
		return err
	}
	a.Admin.LoadRooms(rooms)
	res, err := a.Admin.SetRoomAvailability(ctx, *id, *available)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "room %d available=%v\n", *id, res.Value)
	return nil
}

func cmdLogs(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("logs")
	mine := fs.Bool("my", false, "only my activity")
	module := fs.String("module", "", "filter by module")
	page := fs.Int("page", 1, "page")
	limit := fs.Int("limit", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, _ := a.Session.User()
	var (
		resp domain.LogsResponse
		err  error
	)
	switch {
	case *module != "":
		resp, err = a.Queries.LogsByModule(ctx, domain.LogModule(*module), *page, *limit)
	case *mine || !u.IsAdmin():
		resp, err = a.Queries.MyLogs(ctx, *page, *limit)
	default:
		resp, err = a.Queries.Logs(ctx, *page, *limit)
	}
	if err != nil {
		return err
	}
	tw := table(out)
	fmt.Fprintln(tw, "WHEN\tMODULE\tACTIVITY\tUSER")
	for _, l := range resp.Logs {
		user := fmt.Sprint(l.UserID)
		if l.User != nil {
			user = l.User.Email
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.ActivityDate.Local().Format("2006-01-02 15:04"), l.Module, l.ActivityType, user)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d entries\n", resp.Total)
	return nil
}
