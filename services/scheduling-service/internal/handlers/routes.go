package handlers

import (
	"net/http"

	"github.com/goold/roomsched/libs/httpx"
)

// Register mounts every route on mux. loginLimit guards the unauthenticated endpoints.
func (h *Handler) Register(mux *http.ServeMux, loginLimit httpx.Middleware) {
	var revoked httpx.RevocationList
	if h.revoker != nil {
		revoked = h.revoker
	}
	requireAuth := httpx.RequireAuth(h.tokens, revoked, h.logger)
	admin := httpx.RequireRole("admin")
	if loginLimit == nil {
		loginLimit = func(next http.Handler) http.Handler { return next }
	}

	authed := func(f http.HandlerFunc) http.Handler { return httpx.Chain(f, requireAuth) }
	adminOnly := func(f http.HandlerFunc) http.Handler { return httpx.Chain(f, requireAuth, admin) }
	// optional authenticates when a bearer token is present and passes anonymous calls through.
	optional := func(f http.HandlerFunc) http.Handler {
		withAuth := requireAuth(f)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				f(w, r)
				return
			}
			withAuth.ServeHTTP(w, r)
		})
	}

	mux.Handle("POST /auth/login", httpx.Chain(http.HandlerFunc(h.Login), loginLimit))
	mux.Handle("POST /auth/logout", authed(h.Logout))
	mux.Handle("GET /auth/profile", authed(h.Profile))

	mux.Handle("POST /users", httpx.Chain(optional(h.CreateUser), loginLimit))
	mux.Handle("GET /users", adminOnly(h.ListUsers))
	mux.Handle("GET /users/{id}", authed(h.GetUser))
	mux.Handle("PUT /users/{id}", authed(h.UpdateUser))
	mux.Handle("DELETE /users/{id}", adminOnly(h.DeleteUser))
	mux.Handle("PATCH /users/{id}/status", adminOnly(h.UpdateUserStatus))

	mux.Handle("GET /rooms", authed(h.ListRooms))
	mux.Handle("GET /rooms/available", authed(h.AvailableRooms))
	mux.Handle("POST /rooms", adminOnly(h.CreateRoom))
	mux.Handle("GET /rooms/{id}", authed(h.GetRoom))
	mux.Handle("PUT /rooms/{id}", adminOnly(h.UpdateRoom))
	mux.Handle("DELETE /rooms/{id}", adminOnly(h.DeleteRoom))
	mux.Handle("PATCH /rooms/{id}/availability", adminOnly(h.UpdateRoomAvailability))
	mux.Handle("GET /rooms/{id}/schedules", authed(h.RoomSchedules))
	mux.Handle("GET /rooms/{id}/slots", authed(h.RoomSlots))

	mux.Handle("GET /schedules", adminOnly(h.ListSchedules))
	mux.Handle("POST /schedules", authed(h.CreateSchedule))
	mux.Handle("GET /schedules/my-schedules", authed(h.MySchedules))
	mux.Handle("GET /schedules/upcoming", authed(h.UpcomingSchedules))
	mux.Handle("GET /schedules/{id}", authed(h.GetSchedule))
	mux.Handle("PUT /schedules/{id}", authed(h.UpdateSchedule))
	mux.Handle("DELETE /schedules/{id}", adminOnly(h.DeleteSchedule))
	mux.Handle("PATCH /schedules/{id}/status", authed(h.UpdateScheduleStatus))
	mux.Handle("PATCH /schedules/{id}/cancel", authed(h.CancelSchedule))

	mux.Handle("GET /logs", adminOnly(h.ListLogs))
	mux.Handle("POST /logs", authed(h.CreateLog))
	mux.Handle("GET /logs/my", authed(h.MyLogs))
	mux.Handle("GET /logs/module/{module}", adminOnly(h.LogsByModule))
}
