package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/goold/roomsched/libs/config"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/libs/roomapi"
	"github.com/goold/roomsched/libs/runtime"
	"github.com/goold/roomsched/services/portal/internal/app"
)

type command struct {
	usage string
	admin bool
	run   func(ctx context.Context, a *app.App, out io.Writer, args []string) error
}

var commands = map[string]command{
	"login":             {usage: "login -email E [-password P]", run: cmdLogin},
	"logout":            {usage: "logout", run: cmdLogout},
	"whoami":            {usage: "whoami", run: cmdWhoami},
	"signup":            {usage: "signup -first F -last L -email E -password P [-cep C -number N | -address A]", run: cmdSignup},
	"rooms":             {usage: "rooms [-available]", run: cmdRooms},
	"slots":             {usage: "slots -room ID -date YYYY-MM-DD", run: cmdSlots},
	"book":              {usage: "book -room ID -date YYYY-MM-DD -time HH:MM", run: cmdBook},
	"my":                {usage: "my [-upcoming] [-page N -limit N]", run: cmdMy},
	"cancel":            {usage: "cancel -id ID", run: cmdCancel},
	"reschedule":        {usage: "reschedule -id ID [-room ID] -date YYYY-MM-DD -time HH:MM", run: cmdReschedule},
	"approve":           {usage: "approve -id ID", admin: true, run: cmdApprove},
	"users":             {usage: "users", admin: true, run: cmdUsers},
	"user-status":       {usage: "user-status -id ID -active=true|false", admin: true, run: cmdUserStatus},
	"user-type":         {usage: "user-type -id ID -type customer|admin", admin: true, run: cmdUserType},
	"room-availability": {usage: "room-availability -id ID -available=true|false", admin: true, run: cmdRoomAvailability},
	"room-create":       {usage: "room-create -number N [-start HH:MM -end HH:MM -interval M]", admin: true, run: cmdRoomCreate},
	"room-update":       {usage: "room-update -id ID [-number N] [-available=true|false] [-start HH:MM -end HH:MM -interval M]", admin: true, run: cmdRoomUpdate},
	"room-delete":       {usage: "room-delete -id ID", admin: true, run: cmdRoomDelete},
	"user-create":       {usage: "user-create -first F -last L -email E -password P [-type customer|admin]", admin: true, run: cmdUserCreate},
	"user-delete":       {usage: "user-delete -id ID", admin: true, run: cmdUserDelete},
	"schedule-delete":   {usage: "schedule-delete -id ID", admin: true, run: cmdScheduleDelete},
	"logs":              {usage: "logs [-my] [-module Account|Schedule|Auth] [-page N -limit N]", run: cmdLogs},
	"log":               {usage: "log -module Account|Schedule|Auth -activity TEXT", run: cmdLog},
}

func main() {
	config.LoadDotEnv()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("portal", flag.ContinueOnError)
	global.SetOutput(stderr)
	apiURL := global.String("api", config.String("ROOMSCHED_API_URL", "http://localhost:3333"), "scheduling service base url")
	global.Usage = func() { usage(global, stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(global, stderr)
		return 2
	}
	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		usage(global, stderr)
		return 2
	}

	logger := runtime.NewLoggerTo(stderr, "portal")
	ctx, stop := runtime.SignalContext()
	defer stop()
	ctx = httpx.ContextWithRequestID(ctx, httpx.NewRequestID())

	cfg := app.ConfigFromEnv()
	cfg.APIURL = *apiURL
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer a.Close()

	if name != "login" && name != "signup" && !a.Session.IsAuthenticated() {
		fmt.Fprintln(stderr, "not logged in; run: portal login -email you@example.com")
		return 1
	}
	if cmd.admin {
		if u, _ := a.Session.User(); !u.IsAdmin() {
			fmt.Fprintln(stderr, "this command requires an administrator account")
			return 1
		}
	}
	if err := cmd.run(ctx, a, stdout, rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, "error:", userMessage(err))
		return 1
	}
	return 0
}

// userMessage turns an API error into the text shown to the user.
func userMessage(err error) string {
	switch {
	case roomapi.IsAuth(err):
		return "your session has expired, please log in again"
	case roomapi.IsNetwork(err):
		return "the service is unavailable, please try again later"
	default:
		return roomapi.Message(err)
	}
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: portal [-api URL] <command> [flags]")
	fs.PrintDefaults()
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "\ncommands:")
	for _, n := range names {
		fmt.Fprintln(w, "  "+commands[n].usage)
	}
}
