package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goold/roomsched/libs/auth"
	"github.com/goold/roomsched/libs/domain"
	"github.com/redis/go-redis/v9"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, _, err := auth.NewSigner("secret", ttl).Sign(42, "customer")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func testUser() domain.User {
	return domain.User{
		ID:          42,
		FirstName:   "Ana",
		LastName:    "Lima",
		Email:       "ana@example.com",
		AccountType: domain.AccountCustomer,
		Status:      true,
		Address:     domain.FreeformAddress("Rua A, 10"),
	}
}

func TestManagerLoginRestoreLogout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	m := NewManager(store, quietLogger())
	token := signedToken(t, time.Hour)

	if err := m.Login(ctx, Session{Token: token, User: testUser()}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !m.IsAuthenticated() || m.Token() != token {
		t.Fatal("expected authenticated session")
	}

	restored := NewManager(store, quietLogger())
	s, ok, err := restored.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	if s.User.Email != "ana@example.com" || s.User.Address != domain.FreeformAddress("Rua A, 10") {
		t.Fatalf("unexpected restored user %+v", s.User)
	}

	var reasons []Reason
	restored.OnLogout(func(r Reason) { reasons = append(reasons, r) })
	if err := restored.Logout(ctx, ReasonLogout); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if restored.IsAuthenticated() {
		t.Fatal("expected logged out")
	}
	entries, _ := store.Load(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected storage cleared, got %v", entries)
	}
	if len(reasons) != 1 || reasons[0] != ReasonLogout {
		t.Fatalf("unexpected logout reasons %v", reasons)
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	m := NewManager(NewMemoryStorage(), quietLogger())
	if err := m.Login(context.Background(), Session{}); err != ErrEmptyToken {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestRestoreClearsCorruptUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	_ = store.Save(ctx, Entries{TokenKey: signedToken(t, time.Hour), UserKey: "{not json"})

	m := NewManager(store, quietLogger())
	_, ok, err := m.Restore(ctx)
	if err != nil || ok {
		t.Fatalf("expected no session, ok=%v err=%v", ok, err)
	}
	entries, _ := store.Load(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected storage cleared, got %v", entries)
	}
}

func TestRestoreClearsExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	raw, _ := json.Marshal(testUser())
	_ = store.Save(ctx, Entries{TokenKey: signedToken(t, time.Minute), UserKey: string(raw)})

	m := NewManager(store, quietLogger())
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok, _ := m.Restore(ctx); ok {
		t.Fatal("expected expired token to be dropped")
	}
	entries, _ := store.Load(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected storage cleared, got %v", entries)
	}
}

func TestExpireIgnoresStaleToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStorage(), quietLogger())
	_ = m.Login(ctx, Session{Token: "old", User: testUser()})
	_ = m.Login(ctx, Session{Token: "new", User: testUser()})

	if m.Expire(ctx, "old") {
		t.Fatal("stale token must not log out the new session")
	}
	if !m.IsAuthenticated() {
		t.Fatal("expected session to survive")
	}
	if !m.Expire(ctx, "new") {
		t.Fatal("expected current token to be expired")
	}
	if m.IsAuthenticated() {
		t.Fatal("expected logout")
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	m := NewManager(store, quietLogger())
	_ = m.Login(ctx, Session{Token: "tok", User: testUser()})

	u := testUser()
	u.FirstName = "Bia"
	if err := m.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ := m.User()
	if got.FirstName != "Bia" {
		t.Fatalf("expected updated user, got %+v", got)
	}
	entries, _ := store.Load(ctx)
	if entries[TokenKey] != "tok" {
		t.Fatal("token entry must be kept")
	}
}

func TestUpdateUserKeepsFileSession(t *testing.T) {
	ctx := context.Background()
	store := NewFileStorage(filepath.Join(t.TempDir(), "session.json"))
	m := NewManager(store, quietLogger())
	token := signedToken(t, time.Hour)
	if err := m.Login(ctx, Session{Token: token, User: testUser()}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	u := testUser()
	u.FirstName = "Bia"
	if err := m.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	s, ok, err := NewManager(store, quietLogger()).Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("expected session to survive UpdateUser: ok=%v err=%v", ok, err)
	}
	if s.Token != token || s.User.FirstName != "Bia" {
		t.Fatalf("unexpected restored session %+v", s)
	}
}

func TestFileStorageSaveMerges(t *testing.T) {
	ctx := context.Background()
	s := NewFileStorage(filepath.Join(t.TempDir(), "session.json"))
	if err := s.Save(ctx, Entries{TokenKey: "t"}); err != nil {
		t.Fatalf("Save token: %v", err)
	}
	if err := s.Save(ctx, Entries{UserKey: "{}"}); err != nil {
		t.Fatalf("Save user: %v", err)
	}
	entries, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if entries[TokenKey] != "t" || entries[UserKey] != "{}" {
		t.Fatalf("expected both entries, got %v", entries)
	}
}

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStorage(path)

	entries, err := s.Load(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty entries for missing file, got %v %v", entries, err)
	}
	if err := s.Save(ctx, Entries{TokenKey: "t", UserKey: "{}"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
	entries, _ = s.Load(ctx)
	if entries[TokenKey] != "t" || entries[UserKey] != "{}" {
		t.Fatalf("unexpected entries %v", entries)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	entries, _ = s.Load(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected cleared, got %v", entries)
	}
}

func TestFileStorageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStorage(path).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRedisStorage(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStorage(rdb, "profile:", time.Hour)
	if err := s.Save(ctx, Entries{TokenKey: "t", UserKey: "{}"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := mr.Get("profile:" + TokenKey); got != "t" {
		t.Fatalf("expected namespaced token key, got %q", got)
	}
	entries, err := s.Load(ctx)
	if err != nil || entries[TokenKey] != "t" || entries[UserKey] != "{}" {
		t.Fatalf("unexpected entries %v %v", entries, err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ = s.Load(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected cleared, got %v", entries)
	}
}
