package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goold/roomsched/libs/auth"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/services/scheduling-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	CreateUser(ctx context.Context, nu storage.NewUser) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetCredentials(ctx context.Context, email string) (storage.Credentials, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SaveUser(ctx context.Context, u domain.User) (domain.User, error)
	SetUserStatus(ctx context.Context, id int64, active bool) (domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type RoomStore interface {
	CreateRoom(ctx context.Context, rm domain.Room) (domain.Room, error)
	GetRoom(ctx context.Context, id int64) (domain.Room, error)
	ListRooms(ctx context.Context, onlyAvailable bool) ([]domain.Room, error)
	SaveRoom(ctx context.Context, rm domain.Room) (domain.Room, error)
	SetRoomAvailability(ctx context.Context, id int64, available bool) (domain.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
}

type ScheduleStore interface {
	CreateSchedule(ctx context.Context, ns storage.NewSchedule) (domain.Schedule, bool, error)
	GetSchedule(ctx context.Context, id int64) (domain.Schedule, error)
	ListSchedules(ctx context.Context, f storage.ScheduleFilter) ([]domain.Schedule, int, error)
	RescheduleSchedule(ctx context.Context, id, roomID int64, at time.Time) (domain.Schedule, error)
	SetScheduleStatus(ctx context.Context, id int64, from, to domain.ScheduleStatus, actorID int64) (domain.Schedule, error)
	DeleteSchedule(ctx context.Context, id int64) error
}

type LogStore interface {
	RecordLog(ctx context.Context, userID int64, module domain.LogModule, activity string) (domain.Log, error)
	ListLogs(ctx context.Context, f storage.LogFilter) ([]domain.Log, int, error)
}

type Store interface {
	UserStore
	RoomStore
	ScheduleStore
	LogStore
}

type TokenIssuer interface {
	Sign(userID int64, role string) (string, *auth.Claims, error)
	Verify(token string) (*auth.Claims, error)
}

// Revoker is the logout deny-list.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Handler struct {
	store   Store
	tokens  TokenIssuer
	revoker Revoker
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// New builds the handler set. revoker may be nil, in which case logout does not revoke tokens.
// Slot times are interpreted in loc.
func New(store Store, tokens TokenIssuer, revoker Revoker, logger *slog.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{store: store, tokens: tokens, revoker: revoker, logger: logger, loc: loc, now: time.Now}
}

func (h *Handler) principal(r *http.Request) httpx.Principal {
	p, _ := httpx.PrincipalFromContext(r.Context())
	return p
}

func isAdmin(p httpx.Principal) bool {
	return p.Role == string(domain.AccountAdmin)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, defaultPageSize
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = min(n, maxPageSize)
	}
	return page, limit
}

// decode reads and validates a request body, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.WriteError(w, httpx.StatusForDecode(err), err.Error())
		return false
	}
	if err := domain.Validate(dst); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			httpx.WriteFieldErrors(w, ve.Error(), ve.Fields)
			return false
		}
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// storeError maps storage errors to responses; anything unexpected is logged and answered 500.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, entity+" not found")
	case storage.IsSlotTaken(err):
		httpx.WriteError(w, http.StatusConflict, storage.ErrSlotTaken.Error())
	case errors.Is(err, storage.ErrEmailTaken),
		errors.Is(err, storage.ErrRoomNumberTaken),
		errors.Is(err, storage.ErrRoomInUse):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrStale):
		httpx.WriteError(w, http.StatusConflict, entity+" was changed by another request")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
	default:
		h.logger.Error("store operation failed",
			"err", err,
			"entity", entity,
			"route", r.Pattern,
			"request_id", httpx.RequestIDFromContext(r.Context()),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// activity records a log entry for userID. Failures are logged, never surfaced.
func (h *Handler) activity(ctx context.Context, userID int64, module domain.LogModule, what string) {
	if userID == 0 {
		return
	}
	if _, err := h.store.RecordLog(ctx, userID, module, what); err != nil {
		h.logger.Warn("activity log failed", "err", err, "user_id", userID, "module", module)
	}
}

func hashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash string, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
