package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/goold/roomsched/libs/auth"
	"github.com/goold/roomsched/libs/domain"
)

var ErrEmptyToken = errors.New("session token is empty")

type Session struct {
	Token string
	User  domain.User
}

type Reason string

const (
	ReasonLogout   Reason = "logout"
	ReasonExpired  Reason = "expired"
	ReasonRejected Reason = "rejected"
)

// TokenSource is what request interceptors read.
type TokenSource interface {
	Token() string
}

// Expirer forces a logout when the backend rejects token.
type Expirer interface {
	Expire(ctx context.Context, token string) bool
}

type Manager struct {
	store  Storage
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	current  *Session
	onLogout []func(Reason)
}

func NewManager(store Storage, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// OnLogout registers fn to run after every logout, forced or not.
func (m *Manager) OnLogout(fn func(Reason)) {
	m.mu.Lock()
	m.onLogout = append(m.onLogout, fn)
	m.mu.Unlock()
}

// Restore loads the persisted session. A partial pair, an undecodable user or an expired token
// clears storage and leaves the manager logged out.
func (m *Manager) Restore(ctx context.Context) (Session, bool, error) {
	entries, err := m.store.Load(ctx)
	if err != nil {
		return Session{}, false, err
	}
	token, rawUser := entries[TokenKey], entries[UserKey]
	if token == "" && rawUser == "" {
		return Session{}, false, nil
	}
	if token == "" || rawUser == "" {
		m.logger.Warn("incomplete stored session, clearing")
		return Session{}, false, m.store.Clear(ctx)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.logger.Warn("stored user is not valid json, clearing", "err", err)
		return Session{}, false, m.store.Clear(ctx)
	}
	if m.expired(token) {
		m.logger.Info("stored token expired, clearing", "user_id", user.ID)
		return Session{}, false, m.store.Clear(ctx)
	}

	s := Session{Token: token, User: user}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return s, true, nil
}

func (m *Manager) expired(token string) bool {
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		// Opaque tokens are left for the backend to judge.
		return false
	}
	exp := claims.ExpiresAtTime()
	return !exp.IsZero() && !m.now().Before(exp)
}

func (m *Manager) Login(ctx context.Context, s Session) error {
	if s.Token == "" {
		return ErrEmptyToken
	}
	rawUser, err := json.Marshal(s.User)
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, Entries{TokenKey: s.Token, UserKey: string(rawUser)}); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return nil
}

// UpdateUser replaces the cached profile of the current session.
func (m *Manager) UpdateUser(ctx context.Context, u domain.User) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return nil
	}
	next := Session{Token: m.current.Token, User: u}
	m.mu.Unlock()

	rawUser, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, Entries{TokenKey: next.Token, UserKey: string(rawUser)}); err != nil {
		return err
	}
	m.mu.Lock()
	if m.current != nil && m.current.Token == next.Token {
		m.current = &next
	}
	m.mu.Unlock()
	return nil
}

// Logout clears storage and memory even when storage fails; the storage error is returned.
func (m *Manager) Logout(ctx context.Context, reason Reason) error {
	err := m.store.Clear(ctx)
	m.mu.Lock()
	was := m.current != nil
	m.current = nil
	hooks := append([]func(Reason){}, m.onLogout...)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("clear session storage failed", "err", err)
	}
	if was {
		for _, fn := range hooks {
			fn(reason)
		}
	}
	return err
}

// Expire logs out only if token is still the active one, so a late 401 for a token replaced by
// a newer login is ignored.
func (m *Manager) Expire(ctx context.Context, token string) bool {
	m.mu.RLock()
	match := m.current != nil && token != "" && m.current.Token == token
	m.mu.RUnlock()
	if !match {
		return false
	}
	m.logger.Info("session rejected by backend, logging out")
	_ = m.Logout(ctx, ReasonRejected)
	return true
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

func (m *Manager) User() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return domain.User{}, false
	}
	return m.current.User, true
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

var (
	_ TokenSource = (*Manager)(nil)
	_ Expirer     = (*Manager)(nil)
)
