package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/availability"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/services/scheduling-service/internal/storage"
)

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRoomRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := domain.RoomConfig(req.StartTime, req.EndTime, req.IntervalMinutes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rm, err := h.store.CreateRoom(r.Context(), domain.Room{
		Number:          strings.TrimSpace(req.Number),
		Availability:    true,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		IntervalMinutes: req.IntervalMinutes,
	})
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rm)
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	h.listRooms(w, r, false)
}

func (h *Handler) AvailableRooms(w http.ResponseWriter, r *http.Request) {
	h.listRooms(w, r, true)
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request, onlyAvailable bool) {
	rooms, err := h.store.ListRooms(r.Context(), onlyAvailable)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rooms)
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rm, err := h.store.GetRoom(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rm)
}

// UpdateRoom applies a partial update. The resulting configuration must still be all-or-none.
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateRoomRequest
	if !decode(w, r, &req) {
		return
	}
	rm, err := h.store.GetRoom(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	if req.Number != nil {
		rm.Number = strings.TrimSpace(*req.Number)
	}
	if req.Availability != nil {
		rm.Availability = *req.Availability
	}
	if req.StartTime != nil {
		rm.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		rm.EndTime = req.EndTime
	}
	if req.IntervalMinutes != nil {
		rm.IntervalMinutes = req.IntervalMinutes
	}
	if _, err := rm.Config(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rm, err = h.store.SaveRoom(r.Context(), rm)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rm)
}

func (h *Handler) UpdateRoomAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateRoomAvailabilityRequest
	if !decode(w, r, &req) {
		return
	}
	rm, err := h.store.SetRoomAvailability(r.Context(), id, req.Availability)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rm)
}

func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteRoom(r.Context(), id); err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RoomSchedules lists a room's schedules in the optional [from, to) RFC 3339 range. Other
// users' details are hidden from non-admin callers.
func (h *Handler) RoomSchedules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f := storage.ScheduleFilter{RoomID: id}
	for _, bound := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := r.URL.Query().Get(bound.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid "+bound.name)
			return
		}
		*bound.dst = t
	}
	if _, err := h.store.GetRoom(r.Context(), id); err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	items, _, err := h.store.ListSchedules(r.Context(), f)
	if err != nil {
		h.storeError(w, r, err, "schedule")
		return
	}
	p := h.principal(r)
	if !isAdmin(p) {
		for i := range items {
			if items[i].UserID != p.UserID {
				items[i].User = nil
			}
		}
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

// RoomSlots answers the marked slot list of a room for ?date=YYYY-MM-DD in the service time zone.
// Times already booked or already past are unavailable.
func (h *Handler) RoomSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	day, err := time.ParseInLocation(time.DateOnly, r.URL.Query().Get("date"), h.loc)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	rm, err := h.store.GetRoom(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}
	cfg, err := rm.Config()
	if err != nil {
		h.storeError(w, r, err, "room")
		return
	}

	items, _, err := h.store.ListSchedules(r.Context(), storage.ScheduleFilter{
		RoomID: id,
		From:   day,
		To:     day.AddDate(0, 0, 1),
	})
	if err != nil {
		h.storeError(w, r, err, "schedule")
		return
	}
	bookings := make([]availability.Booking, 0, len(items))
	for _, s := range items {
		bookings = append(bookings, availability.Booking{At: s.ScheduleDate, Cancelled: s.Status == domain.StatusCancelled})
	}
	disabled := availability.DisabledTimes(bookings, day, h.loc)

	slots := availability.SlotsFor(cfg)
	now := h.now().In(h.loc)
	for _, t := range slots {
		c, _ := availability.ParseClock(t)
		if !c.On(day, h.loc).After(now) {
			disabled = append(disabled, t)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, domain.RoomSlots{
		RoomID:     id,
		Date:       day.Format(time.DateOnly),
		Configured: cfg != nil,
		Slots:      availability.MarkAvailability(slots, disabled),
	})
}
