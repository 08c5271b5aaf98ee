package handlers

import (
	"net/http"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/services/scheduling-service/internal/storage"
)

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	h.writeLogs(w, r, storage.LogFilter{Page: page, Limit: limit})
}

func (h *Handler) MyLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	h.writeLogs(w, r, storage.LogFilter{UserID: h.principal(r).UserID, Page: page, Limit: limit})
}

func (h *Handler) LogsByModule(w http.ResponseWriter, r *http.Request) {
	module := domain.LogModule(r.PathValue("module"))
	if !module.Valid() {
		httpx.WriteError(w, http.StatusBadRequest, "unknown module")
		return
	}
	page, limit := pagination(r)
	h.writeLogs(w, r, storage.LogFilter{Module: module, Page: page, Limit: limit})
}

func (h *Handler) writeLogs(w http.ResponseWriter, r *http.Request, f storage.LogFilter) {
	logs, total, err := h.store.ListLogs(r.Context(), f)
	if err != nil {
		h.storeError(w, r, err, "log")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, domain.LogsResponse{Total: total, Logs: logs})
}

func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLogRequest
	if !decode(w, r, &req) {
		return
	}
	l, err := h.store.RecordLog(r.Context(), h.principal(r).UserID, req.Module, req.ActivityType)
	if err != nil {
		h.storeError(w, r, err, "log")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, l)
}
