// Package notify turns schedule lifecycle events into emails to the booking's owner.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/kafkax"
	"github.com/goold/roomsched/services/notification-service/internal/email"
	"github.com/goold/roomsched/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

const (
	ScheduleCreated       = "schedule.created.v1"
	ScheduleStatusChanged = "schedule.status_changed.v1"
	ScheduleCancelled     = "schedule.cancelled.v1"
)

// EventTypes are the events the notifier subscribes to.
var EventTypes = []string{ScheduleCreated, ScheduleStatusChanged, ScheduleCancelled}

type schedulePayload struct {
	ScheduleID   int64     `json:"schedule_id"`
	RoomID       int64     `json:"room_id"`
	UserID       int64     `json:"user_id"`
	ScheduleDate time.Time `json:"schedule_date"`
	Status       string    `json:"status"`
	FromStatus   string    `json:"from_status"`
	ActorID      int64     `json:"actor_id"`
	RoomNumber   string    `json:"room_number"`
	UserEmail    string    `json:"user_email"`
	UserName     string    `json:"user_name"`
}

type Store interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Handler struct {
	sender email.Sender
	store  Store
	logger *slog.Logger
	loc    *time.Location
}

func NewHandler(sender email.Sender, store Store, logger *slog.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{sender: sender, store: store, logger: logger, loc: loc}
}

// Handle sends the email for one event and records the outcome. Malformed or irrelevant
// events are dropped; only a failed write of the outcome is returned as an error.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	var p schedulePayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		h.logger.Error("invalid schedule payload", "err", err, "event_id", meta.EventID)
		return nil
	}
	if p.ScheduleID <= 0 || p.ScheduleDate.IsZero() {
		h.logger.Error("missing schedule fields", "event_id", meta.EventID)
		return nil
	}
	if strings.TrimSpace(p.UserEmail) == "" {
		h.logger.Warn("schedule event without recipient", "event_id", meta.EventID, "schedule_id", p.ScheduleID)
		return nil
	}

	subject, body, ok := h.render(meta.EventType, p)
	if !ok {
		h.logger.Debug("event needs no notification", "event_type", meta.EventType, "status", p.Status)
		return nil
	}

	n := storage.Notification{
		EventID:    meta.EventID,
		EventType:  meta.EventType,
		ScheduleID: p.ScheduleID,
		Recipient:  p.UserEmail,
		Subject:    subject,
		Status:     storage.StatusSent,
	}
	if err := h.sender.Send(p.UserEmail, subject, body); err != nil {
		n.Status = storage.StatusFailed
		n.Error = err.Error()
		h.logger.Error("email send failed", "err", err, "schedule_id", p.ScheduleID)
	}
	if err := h.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	h.logger.Info("schedule notification processed", "schedule_id", p.ScheduleID, "event_type", meta.EventType, "status", n.Status)
	return nil
}

func (h *Handler) render(eventType string, p schedulePayload) (subject, body string, ok bool) {
	when := p.ScheduleDate.In(h.loc).Format("02/01/2006 15:04")
	room := p.RoomNumber
	if room == "" {
		room = fmt.Sprintf("#%d", p.RoomID)
	}
	greeting := "Hello"
	if p.UserName != "" {
		greeting = "Hello " + p.UserName
	}

	switch {
	case eventType == ScheduleCreated:
		subject = fmt.Sprintf("Booking received: room %s on %s", room, when)
		body = fmt.Sprintf("%s,\n\nWe received your booking for room %s on %s. It is pending approval.", greeting, room, when)
	case eventType == ScheduleCancelled:
		subject = fmt.Sprintf("Booking cancelled: room %s on %s", room, when)
		body = fmt.Sprintf("%s,\n\nYour booking for room %s on %s was cancelled.", greeting, room, when)
		if p.ActorID != 0 && p.ActorID != p.UserID {
			body += " It was cancelled by an administrator."
		}
	case eventType == ScheduleStatusChanged && p.Status == "confirmed":
		subject = fmt.Sprintf("Booking confirmed: room %s on %s", room, when)
		body = fmt.Sprintf("%s,\n\nYour booking for room %s on %s is confirmed.", greeting, room, when)
	default:
		return "", "", false
	}
	return subject, body, true
}
