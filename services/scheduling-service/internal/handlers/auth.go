package handlers

import (
	"net/http"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	creds, err := h.store.GetCredentials(r.Context(), req.Email)
	if err != nil {
		if isNotFound(err) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.storeError(w, r, err, "user")
		return
	}
	if err := verifyPassword(creds.PasswordHash, req.Password); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !creds.User.Status {
		httpx.WriteError(w, http.StatusForbidden, "account is inactive")
		return
	}

	token, _, err := h.tokens.Sign(creds.User.ID, string(creds.User.AccountType))
	if err != nil {
		h.logger.Error("sign token failed", "err", err, "user_id", creds.User.ID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	h.activity(r.Context(), creds.User.ID, domain.ModuleAuth, "Login")
	httpx.WriteJSON(w, http.StatusOK, domain.AuthResponse{
		Message: "login successful",
		Token:   token,
		User:    creds.User,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := h.principal(r)
	if h.revoker != nil {
		if err := h.revoker.Revoke(r.Context(), p.TokenID, p.ExpiresAt); err != nil {
			h.logger.Error("revoke token failed", "err", err, "user_id", p.UserID)
			httpx.WriteError(w, http.StatusServiceUnavailable, "logout failed")
			return
		}
	}
	h.activity(r.Context(), p.UserID, domain.ModuleAuth, "Logout")
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), h.principal(r).UserID)
	if err != nil {
		h.storeError(w, r, err, "user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}
