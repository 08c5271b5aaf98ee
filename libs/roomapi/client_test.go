package roomapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(t *testing.T, token string) *session.Manager {
	t.Helper()
	m := session.NewManager(session.NewMemoryStorage(), quietLogger())
	if err := m.Login(context.Background(), session.Session{Token: token, User: domain.User{ID: 1}}); err != nil {
		t.Fatalf("login: %v", err)
	}
	return m
}

func newClient(t *testing.T, h http.Handler, m *session.Manager) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithSession(m, m), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("localhost:8080"); err == nil {
		t.Fatal("expected error for url without scheme")
	}
}

func TestClientAttachesBearerToken(t *testing.T) {
	m := newSession(t, "tok-1")
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/rooms/available" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]domain.Room{{ID: 3, Number: "101", Availability: true}})
	}), m)

	rooms, err := c.AvailableRooms(context.Background())
	if err != nil {
		t.Fatalf("AvailableRooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Number != "101" {
		t.Fatalf("unexpected rooms %+v", rooms)
	}
}

func TestClient401ExpiresSession(t *testing.T) {
	m := newSession(t, "tok-1")
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid token"}`))
	}), m)

	_, err := c.Profile(context.Background())
	if !errors.Is(err, ErrUnauthorized) || !IsAuth(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatal("expected session to be expired after 401")
	}
}

func TestClientErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		msg    string
	}{
		{"conflict", http.StatusConflict, `{"message":"time slot already booked"}`, IsConflict, "time slot already booked"},
		{"forbidden", http.StatusForbidden, `{"message":"forbidden"}`, IsConflict, "forbidden"},
		{"not found", http.StatusNotFound, "room not found\n", IsConflict, "room not found"},
		{"bad request", http.StatusBadRequest, `{"message":"invalid fields"}`, IsValidation, "invalid fields"},
		{"server", http.StatusInternalServerError, `boom`, IsNetwork, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}), newSession(t, "tok"))

			_, err := c.Room(context.Background(), 1)
			if !tt.check(err) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			if Message(err) != tt.msg {
				t.Fatalf("expected message %q, got %q", tt.msg, Message(err))
			}
		})
	}
}

func TestClientUndecodableBodyIsNetwork(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}), newSession(t, "tok"))
	if _, err := c.Room(context.Background(), 1); !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClientTransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c, err := New(url)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Rooms(context.Background()); !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCreateScheduleSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	var body domain.CreateScheduleRequest
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Schedule{ID: 9, RoomID: body.RoomID, ScheduleDate: body.ScheduleDate, Status: domain.StatusPending})
	}), newSession(t, "tok"))

	at := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	s, err := c.CreateSchedule(context.Background(), domain.CreateScheduleRequest{ScheduleDate: at, RoomID: 4}, "key-1")
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if gotKey != "key-1" || s.ID != 9 || !body.ScheduleDate.Equal(at) {
		t.Fatalf("unexpected request key=%q schedule=%+v", gotKey, s)
	}
}

func TestValidationNeverReachesNetwork(t *testing.T) {
	calls := 0
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}), newSession(t, "tok"))

	_, err := c.CreateSchedule(context.Background(), domain.CreateScheduleRequest{RoomID: 4}, "")
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	start, interval := "08:00", 30
	_, err = c.CreateRoom(context.Background(), domain.CreateRoomRequest{Number: "1", StartTime: &start, IntervalMinutes: &interval})
	if !IsValidation(err) {
		t.Fatalf("expected partial config to be rejected, got %v", err)
	}
	if err := c.DeleteUser(context.Background(), 0); !IsValidation(err) {
		t.Fatalf("expected id validation, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no requests, got %d", calls)
	}
}

func TestSignupForcesCustomer(t *testing.T) {
	var got map[string]any
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(domain.User{ID: 5})
	}), newSession(t, "tok"))

	_, err := c.Signup(context.Background(), domain.CreateUserRequest{
		FirstName: "A", LastName: "B", Email: "a@b.co", Password: "secret1",
		AccountType: domain.AccountAdmin,
		Address:     domain.FreeformAddress("Rua A"),
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if got["accountType"] != "customer" || got["address"] != "Rua A" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestRoomSlotsQuery(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/rooms/2/slots") || r.URL.Query().Get("date") != "2024-05-10" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.RoomSlots{RoomID: 2, Date: "2024-05-10", Configured: false})
	}), newSession(t, "tok"))

	slots, err := c.RoomSlots(context.Background(), 2, "2024-05-10")
	if err != nil || slots.RoomID != 2 {
		t.Fatalf("unexpected %+v %v", slots, err)
	}
}
