package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/availability"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/services/scheduling-service/internal/storage"
)

// checkSlot verifies that at is a bookable start time of rm: the room is open for booking, at is
// in the future and falls exactly on one of the room's slots in the service time zone.
func (h *Handler) checkSlot(w http.ResponseWriter, r *http.Request, rm domain.Room, at time.Time) bool {
	if !rm.Availability {
		httpx.WriteError(w, http.StatusConflict, "room is not available for booking")
		return false
	}
	cfg, err := rm.Config()
	if err != nil {
		h.storeError(w, r, err, "room")
		return false
	}
	if cfg == nil {
		def := availability.DefaultConfig()
		cfg = &def
	}
	local := at.In(h.loc)
	if local.Second() != 0 || local.Nanosecond() != 0 || !cfg.Contains(availability.ClockOf(local)) {
		httpx.WriteError(w, http.StatusBadRequest, "scheduleDate is not one of the room's time slots")
		return false
	}
	if !at.After(h.now()) {
		httpx.WriteError(w, http.StatusBadRequest, "scheduleDate must be in the future")
		return false
	}
	return true
}

// CreateSchedule books a slot for the caller. The unique index on live (room, time) pairs is the
// final arbiter: a concurrent booking of the same slot gets 409.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	p := h.principal(r)

	rm, err := h.store.GetRoom(r.Context(), req.RoomID)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	if !h.checkSlot(w, r, rm, req.ScheduleDate) {
		return
	}

	s, replayed, err := h.store.CreateSchedule(r.Context(), storage.NewSchedule{
		UserID:         p.UserID,
		RoomID:         rm.ID,
		ScheduleDate:   req.ScheduleDate,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		if storage.IsSlotTaken(err) {
			h.logger.Info("slot conflict", "room_id", rm.ID, "schedule_date", req.ScheduleDate, "user_id", p.UserID)
		}
		h.storeError(w, r, err, "schedule")
		return
	}
	if replayed {
		httpx.WriteJSON(w, http.StatusOK, s)
		return
	}
	h.activity(r.Context(), p.UserID, domain.ModuleSchedule, "Schedule created")
	httpx.WriteJSON(w, http.StatusCreated, s)
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	h.writeSchedulePage(w, r, storage.ScheduleFilter{Page: page, Limit: limit})
}

func (h *Handler) MySchedules(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	h.writeSchedulePage(w, r, storage.ScheduleFilter{UserID: h.principal(r).UserID, Page: page, Limit: limit})
}

func (h *Handler) writeSchedulePage(w http.ResponseWriter, r *http.Request, f storage.ScheduleFilter) {
	items, total, err := h.store.ListSchedules(r.Context(), f)
	if err != nil {
		h.storeError(w, r, err, "schedule")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, domain.NewScheduleResponse(items, total, f.Page, f.Limit))
}

func (h *Handler) UpcomingSchedules(w http.ResponseWriter, r *http.Request) {
	items, _, err := h.store.ListSchedules(r.Context(), storage.ScheduleFilter{
		UserID:   h.principal(r).UserID,
		Upcoming: true,
		Limit:    maxPageSize,
	})
	if err != nil {
		h.storeError(w, r, err, "schedule")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

// loadOwned fetches a schedule the caller may act on: their own, or any for an admin.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (domain.Schedule, domain.Actor, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return domain.Schedule{}, domain.Actor{}, false
	}
	s, err := h.store.GetSchedule(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "schedule")
		return domain.Schedule{}, domain.Actor{}, false
	}
	p := h.principal(r)
	actor := domain.Actor{Admin: isAdmin(p), Owner: s.UserID == p.UserID}
	if !actor.Admin && !actor.Owner {
		httpx.WriteError(w, http.StatusNotFound, "schedule not found")
		return domain.Schedule{}, domain.Actor{}, false
	}
	return s, actor, true
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

// UpdateSchedule moves a live schedule to another slot and/or room.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req domain.UpdateScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	if s.Status == domain.StatusCancelled {
		httpx.WriteError(w, http.StatusConflict, "cancelled schedules cannot be changed")
		return
	}
	roomID, at := s.RoomID, s.ScheduleDate
	if req.RoomID != nil {
		roomID = *req.RoomID
	}
	if req.ScheduleDate != nil {
		at = *req.ScheduleDate
	}
	rm, err := h.store.GetRoom(r.Context(), roomID)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	if !h.checkSlot(w, r, rm, at) {
		return
	}
	out, err := h.store.RescheduleSchedule(r.Context(), s.ID, roomID, at)
	if err != nil {
		h.storeError(w, r, err, "schedule")
		return
	}
	h.activity(r.Context(), h.principal(r).UserID, domain.ModuleSchedule, "Schedule updated")
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateScheduleStatus(w http.ResponseWriter, r *http.Request) {
	s, actor, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req domain.UpdateScheduleStatusRequest
	if !decode(w, r, &req) {
		return
	}
	h.transition(w, r, s, actor, req.Status)
}

func (h *Handler) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	s, actor, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	h.transition(w, r, s, actor, domain.StatusCancelled)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, s domain.Schedule, actor domain.Actor, to domain.ScheduleStatus) {
	if err := domain.CanTransition(s.Status, to, actor); err != nil {
		status := http.StatusConflict
		if errors.Is(err, domain.ErrForbiddenActor) {
			status = http.StatusForbidden
		}
		httpx.WriteError(w, status, err.Error())
		return
	}
	p := h.principal(r)
	out, err := h.store.SetScheduleStatus(r.Context(), s.ID, s.Status, to, p.UserID)
	if err != nil {
		h.storeError(w, r, err, "schedule")
		return
	}
	what := "Schedule confirmed"
	if to == domain.StatusCancelled {
		what = "Schedule cancelled"
	}
	h.activity(r.Context(), p.UserID, domain.ModuleSchedule, what)
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteSchedule(r.Context(), id); err != nil {
		h.storeError(w, r, err, "schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
