// Package app wires the portal: session, API client, query cache, booking flow and admin console.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/config"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/optimistic"
	"github.com/goold/roomsched/libs/roomapi"
	"github.com/goold/roomsched/libs/session"
	"github.com/goold/roomsched/services/portal/internal/admin"
	"github.com/goold/roomsched/services/portal/internal/booking"
	"github.com/goold/roomsched/services/portal/internal/cep"
	"github.com/goold/roomsched/services/portal/internal/queries"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	APIURL string
	// SessionBackend is "file" (default) or "redis".
	SessionBackend string
	SessionFile    string
	SessionPrefix  string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	Location       *time.Location
	CEPURL         string
}

func ConfigFromEnv() Config {
	return Config{
		APIURL:         config.String("ROOMSCHED_API_URL", "http://localhost:3333"),
		SessionBackend: strings.ToLower(config.String("SESSION_BACKEND", "file")),
		SessionFile:    config.String("SESSION_FILE", session.DefaultFilePath()),
		SessionPrefix:  config.String("SESSION_PREFIX", "portal:"),
		SessionTTL:     config.Duration("SESSION_TTL", 0),
		RedisAddr:      config.String("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  config.String("REDIS_PASSWORD", ""),
		RedisDB:        config.Int("REDIS_DB", 0),
		Location:       config.Location("ROOM_TIMEZONE", "America/Sao_Paulo"),
		CEPURL:         config.String("CEP_API_URL", cep.DefaultBaseURL),
	}
}

type App struct {
	Logger  *slog.Logger
	Session *session.Manager
	API     *roomapi.Client
	Queries *queries.Queries
	Booking *booking.Booker
	Admin   *admin.Console
	CEP     *cep.Client

	closers []func() error
}

// New builds the application and restores a persisted session, if any.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*App, error) {
	a := &App{Logger: logger}
	store, err := a.openStorage(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.wire(cfg, store); err != nil {
		_ = a.Close()
		return nil, err
	}
	if _, ok, err := a.Session.Restore(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	} else if ok {
		logger.Debug("session restored")
	}
	return a, nil
}

func (a *App) openStorage(cfg Config) (session.Storage, error) {
	switch cfg.SessionBackend {
	case "", "file":
		return session.NewFileStorage(cfg.SessionFile), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedisStorage(rdb, cfg.SessionPrefix, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func (a *App) wire(cfg Config, store session.Storage) error {
	a.Session = session.NewManager(store, a.Logger)
	api, err := roomapi.New(cfg.APIURL,
		roomapi.WithSession(a.Session, a.Session),
		roomapi.WithLogger(a.Logger),
	)
	if err != nil {
		return err
	}
	a.API = api
	a.Queries = queries.New(api, roomapi.NewQueryCache())
	a.Booking = booking.New(a.Queries, cfg.Location)
	a.Admin = admin.New(a.Queries, a.Session.User)
	a.CEP = cep.New(cfg.CEPURL, nil)

	a.Session.OnLogout(func(reason session.Reason) {
		a.Queries.Reset()
		a.Logger.Info("signed out", "reason", string(reason))
	})
	// Rolled back toggles refetch their collections to pick up the backend's view.
	a.Admin.UserStatus.OnSettled(invalidateOnRollback[bool](a.Queries, queries.KeyUsers))
	a.Admin.AccountType.OnSettled(invalidateOnRollback[domain.AccountType](a.Queries, queries.KeyUsers))
	a.Admin.ScheduleStatus.OnSettled(invalidateOnRollback[domain.ScheduleStatus](a.Queries, queries.KeySchedules))
	a.Admin.RoomAvailability.OnSettled(invalidateOnRollback[bool](a.Queries, queries.KeyRooms))
	return nil
}

func invalidateOnRollback[V any](q *queries.Queries, key roomapi.Key) func(int64, optimistic.Result[V]) {
	return func(_ int64, r optimistic.Result[V]) {
		if r.Outcome == optimistic.RolledBack {
			q.Invalidate(key)
		}
	}
}

// Login authenticates and persists the session.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, error) {
	resp, err := a.API.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return domain.User{}, err
	}
	if err := a.Session.Login(ctx, session.Session{Token: resp.Token, User: resp.User}); err != nil {
		return domain.User{}, fmt.Errorf("save session: %w", err)
	}
	a.Queries.Reset()
	return resp.User, nil
}

// Logout revokes the token on the backend and always clears the local session.
func (a *App) Logout(ctx context.Context) error {
	if !a.Session.IsAuthenticated() {
		return nil
	}
	remote := a.API.Logout(ctx)
	if remote != nil && !roomapi.IsAuth(remote) {
		a.Logger.Warn("remote logout failed", "err", remote)
	}
	return a.Session.Logout(ctx, session.ReasonLogout)
}

// RefreshProfile reloads the signed-in user and updates the stored copy.
func (a *App) RefreshProfile(ctx context.Context) (domain.User, error) {
	a.Queries.Invalidate(queries.KeyProfile)
	u, err := a.Queries.Profile(ctx)
	if err != nil {
		return domain.User{}, err
	}
	return u, a.Session.UpdateUser(ctx, u)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
