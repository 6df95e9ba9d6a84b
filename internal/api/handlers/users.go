// users.go — профиль текущего пользователя и администрирование пользователей Keycloak.
package handlers

import (
	"net/http"
)

// GetProfile — GET /api/v1/profile: синхронизированный текущий пользователь.
func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	p, err := h.svc.Users.Profile(u)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(p))
}

// RegisterUser — POST /api/v1/users.
// Создаёт пользователя в Keycloak, назначает роль realm и сохраняет локальную копию.
func (h *APIHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	var body registerRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	created, err := h.svc.Users.Register(r.Context(), u, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(created))
}

// DeleteUser — DELETE /api/v1/users/{username}.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	username, ok := pathUsername(w, r)
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(r.Context(), u, username); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
