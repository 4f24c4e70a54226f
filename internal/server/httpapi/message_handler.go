package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropnote/dropnote/internal/server/config"
	"github.com/dropnote/dropnote/internal/server/models"
	"github.com/dropnote/dropnote/internal/server/services"
	"github.com/gorilla/mux"
)

// MessageHandler exposes the creator-side message CRUD and the anonymous
// viewer endpoints.
type MessageHandler struct {
	messages *services.MessageService
	users    *services.UserService
	config   *config.Config
}

func NewMessageHandler(messages *services.MessageService, users *services.UserService, cfg *config.Config) *MessageHandler {
	return &MessageHandler{messages: messages, users: users, config: cfg}
}

type createMessageRequest struct {
	Content []string `json:"content"`
	// ExpiresIn is in hours; zero means the full horizon
	ExpiresIn int  `json:"expiresIn"`
	Secrecy   bool `json:"secrecy"`
}

type updateMessageRequest struct {
	Content   []string `json:"content"`
	ExpiresIn int      `json:"expiresIn"`
}

type respondRequest struct {
	Response string `json:"response"`
}

type createMessagePayload struct {
	ID        string    `json:"id"`
	ShareURL  string    `json:"shareUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// viewMessagePayload is everything a viewer ever learns about a message.
type viewMessagePayload struct {
	Content   []string  `json:"content"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// messagePayload is the creator's view of a message. Content and share URL
// are withheld for sealed messages: the server cannot reconstruct either.
type messagePayload struct {
	ID        string     `json:"id"`
	Content   string     `json:"content,omitempty"`
	ViewToken string     `json:"viewToken"`
	Secret    bool       `json:"secret"`
	Response  string     `json:"response,omitempty"`
	ViewedAt  *time.Time `json:"viewedAt,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	ShareURL  string     `json:"shareUrl,omitempty"`
}

func (h *MessageHandler) toPayload(m *models.Message) messagePayload {
	p := messagePayload{
		ID:        m.ID,
		ViewToken: m.ViewToken,
		Secret:    m.Secret,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
	if !m.Secret {
		p.Content = m.Content
		p.ShareURL = h.shareURL(m.ViewToken)
	}
	if m.ViewedAt.Valid {
		t := m.ViewedAt.Time
		p.ViewedAt = &t
	}
	if m.Response.Valid {
		p.Response = m.Response.String
	}
	return p
}

func (h *MessageHandler) shareURL(viewToken string) string {
	return h.config.AppBaseURL + "/view/" + viewToken
}

// List returns all of the authenticated creator's messages.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	result, err := h.messages.ListByCreator(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	payloads := make([]messagePayload, 0, len(result))
	for _, m := range result {
		payloads = append(payloads, h.toPayload(m))
	}

	writeJSON(w, http.StatusOK, struct {
		Success  bool             `json:"success"`
		Messages []messagePayload `json:"messages"`
	}{true, payloads})
}

// Create persists a new message and returns its share URL. For a sealed
// message this response is the only time the share token ever leaves the
// server.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.messages.Create(r.Context(), userID, req.Content,
		time.Duration(req.ExpiresIn)*time.Hour, req.Secrecy)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                 `json:"success"`
		Message createMessagePayload `json:"message"`
	}{true, createMessagePayload{
		ID:        result.Message.ID,
		ShareURL:  h.shareURL(result.ShareToken),
		ExpiresAt: result.Message.ExpiresAt,
		CreatedAt: result.Message.CreatedAt,
	}})
}

// Get returns one message to its creator.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	m, err := h.messages.GetByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool           `json:"success"`
		Message messagePayload `json:"message"`
	}{true, h.toPayload(m)})
}

// Update replaces content and/or expiry of an unviewed message.
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req updateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.messages.Update(r.Context(), userID, id, req.Content,
		time.Duration(req.ExpiresIn)*time.Hour)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool           `json:"success"`
		Message messagePayload `json:"message"`
	}{true, h.toPayload(m)})
}

// Delete removes a message and hands back a refreshed session token so the
// dashboard can keep going without an extra round trip.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.messages.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	var newToken string
	if token, ok := SessionTokenFromContext(r.Context()); ok {
		if extended, err := h.users.Extend(r.Context(), token); err == nil {
			newToken = extended
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Success  bool   `json:"success"`
		NewToken string `json:"newToken,omitempty"`
	}{true, newToken})
}

// View is the anonymous one-time disclosure. No authentication: the view
// token is the capability.
func (h *MessageHandler) View(w http.ResponseWriter, r *http.Request) {
	vtoken := mux.Vars(r)["vtoken"]

	result, err := h.messages.View(r.Context(), vtoken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool               `json:"success"`
		Message viewMessagePayload `json:"message"`
	}{true, viewMessagePayload{
		Content:   result.Content,
		ExpiresAt: result.ExpiresAt,
		CreatedAt: result.CreatedAt,
	}})
}

// Respond attaches the viewer's short reaction to an already viewed message.
func (h *MessageHandler) Respond(w http.ResponseWriter, r *http.Request) {
	vtoken := mux.Vars(r)["vtoken"]

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.messages.Respond(r.Context(), vtoken, req.Response); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}
