package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/services/scheduling-service/internal/storage"
)

func isNotFound(err error) bool { return errors.Is(err, storage.ErrNotFound) }

// CreateUser serves both public signup and admin account creation. Only an authenticated admin
// may create another admin.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	caller, authenticated := httpx.PrincipalFromContext(r.Context())
	accountType := domain.AccountCustomer
	if authenticated && isAdmin(caller) && req.AccountType != "" {
		accountType = req.AccountType
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	u, err := h.store.CreateUser(r.Context(), storage.NewUser{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		PasswordHash: hash,
		AccountType:  accountType,
		Address:      req.Address,
	})
	if err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	h.activity(r.Context(), u.ID, domain.ModuleAccount, "Account created")
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := h.principal(r)
	if !isAdmin(p) && p.UserID != id {
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
		return
	}
	u, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := h.principal(r)
	if !isAdmin(p) && p.UserID != id {
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req domain.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AccountType != nil && !isAdmin(p) {
		httpx.WriteError(w, http.StatusForbidden, "only administrators can change the account type")
		return
	}

	u, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.AccountType != nil {
		u.AccountType = *req.AccountType
	}
	if req.Address != nil {
		u.Address = req.Address
	}

	u, err = h.store.SaveUser(r.Context(), u)
	if err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	h.activity(r.Context(), p.UserID, domain.ModuleAccount, "Account updated")
	httpx.WriteJSON(w, http.StatusOK, u)
}

// UpdateUserStatus activates or deactivates an account. Administrators cannot change their own.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := h.principal(r)
	if p.UserID == id {
		httpx.WriteError(w, http.StatusConflict, "you cannot change your own status")
		return
	}
	var req domain.UpdateUserStatusRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.store.SetUserStatus(r.Context(), id, req.IsActive)
	if err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	what := "User deactivated"
	if req.IsActive {
		what = "User activated"
	}
	h.activity(r.Context(), p.UserID, domain.ModuleAccount, what)
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := h.principal(r)
	if p.UserID == id {
		httpx.WriteError(w, http.StatusConflict, "you cannot delete your own account")
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	h.activity(r.Context(), p.UserID, domain.ModuleAccount, "User deleted")
	w.WriteHeader(http.StatusNoContent)
}
