package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goold/roomsched/libs/auth"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/libs/session"
)

type backend struct {
	token      string
	usersHits  atomic.Int32
	rejectNext atomic.Bool
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	tok, _, err := auth.NewSigner("s3cret", time.Hour).Sign(1, "admin")
	if err != nil {
		t.Fatal(err)
	}
	b := &backend{token: tok}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret1" {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, domain.AuthResponse{
			Message: "login successful",
			Token:   b.token,
			User:    domain.User{ID: 1, Email: req.Email, AccountType: domain.AccountAdmin, Status: true},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+b.token || b.rejectNext.Load() {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		b.usersHits.Add(1)
		httpx.WriteJSON(w, http.StatusOK, []domain.User{{ID: 1, Status: true}, {ID: 2, Status: true}})
	})
	mux.HandleFunc("PATCH /users/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusConflict, "user is locked")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLoginPersistsAndRestoresFileSession(t *testing.T) {
	_, srv := newBackend(t)
	cfg := Config{APIURL: srv.URL, SessionFile: filepath.Join(t.TempDir(), "session.json"), Location: time.UTC}
	ctx := context.Background()

	a, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Login(ctx, "admin@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	b, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	u, ok := b.Session.User()
	if !ok || u.Email != "admin@example.com" {
		t.Fatalf("expected restored session, got %+v %v", u, ok)
	}

	if err := b.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	c, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.Session.IsAuthenticated() {
		t.Fatal("logout must clear persisted session")
	}
}

func TestRedisSessionAndUnauthorizedExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	b, srv := newBackend(t)
	cfg := Config{APIURL: srv.URL, SessionBackend: "redis", RedisAddr: mr.Addr(), SessionPrefix: "test:", Location: time.UTC}
	ctx := context.Background()

	a, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if _, err := a.Login(ctx, "admin@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got, _ := mr.Get("test:" + session.TokenKey); got != b.token {
		t.Fatalf("token not stored in redis: %q", got)
	}

	for i := 0; i < 2; i++ {
		if _, err := a.Queries.Users(ctx); err != nil {
			t.Fatalf("Users: %v", err)
		}
	}
	if hits := b.usersHits.Load(); hits != 1 {
		t.Fatalf("expected one backend hit, got %d", hits)
	}

	b.rejectNext.Store(true)
	a.Queries.Invalidate([]string{"users"})
	if _, err := a.Queries.Users(ctx); err == nil {
		t.Fatal("expected 401")
	}
	if a.Session.IsAuthenticated() {
		t.Fatal("401 must end the session")
	}
	if mr.Exists("test:" + session.TokenKey) {
		t.Fatal("401 must clear stored session")
	}
}

func TestAdminRollbackInvalidatesUsers(t *testing.T) {
	b, srv := newBackend(t)
	ctx := context.Background()
	a, err := New(ctx, Config{APIURL: srv.URL, SessionFile: filepath.Join(t.TempDir(), "s.json"), Location: time.UTC}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Login(ctx, "admin@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	users, err := a.Queries.Users(ctx)
	if err != nil {
		t.Fatal(err)
	}
	a.Admin.LoadUsers(users)

	if _, err := a.Admin.SetUserActive(ctx, 2, false); err == nil {
		t.Fatal("expected conflict")
	}
	if v, _ := a.Admin.UserStatus.Value(2); !v {
		t.Fatal("status must roll back")
	}
	if _, err := a.Queries.Users(ctx); err != nil {
		t.Fatal(err)
	}
	if hits := b.usersHits.Load(); hits != 2 {
		t.Fatalf("rollback must invalidate the users query, hits=%d", hits)
	}
}
