package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dropnote/dropnote/internal/server/services"
)

// AuthHandler exposes registration, login and session extension.
type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Success bool        `json:"success"`
		User    userPayload `json:"user"`
	}{true, userPayload{ID: user.ID, Email: user.Email}})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Token   string      `json:"token"`
		User    userPayload `json:"user"`
	}{true, token, userPayload{ID: user.ID, Email: user.Email}})
}

// Extend slides the session window of the presented bearer token. A session
// past its age ceiling gets 401 and must log in again.
func (h *AuthHandler) Extend(w http.ResponseWriter, r *http.Request) {
	token, ok := SessionTokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	extended, err := h.users.Extend(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if extended == "" {
		writeError(w, http.StatusUnauthorized, "session expired, log in again")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}{true, extended})
}
