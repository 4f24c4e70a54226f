package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dropnote/dropnote/internal/server/gifs"
	"github.com/dropnote/dropnote/internal/server/models"
	"github.com/gorilla/mux"
)

const (
	defaultGifLimit  = 18
	maxGifLimit      = 30
	fallbackGifLimit = 6
)

// GifHandler exposes gif search for the message composer.
type GifHandler struct {
	catalogue gifs.Catalogue
}

func NewGifHandler(catalogue gifs.Catalogue) *GifHandler {
	return &GifHandler{catalogue: catalogue}
}

// Search lists gifs matching ?q, or trending ones when the query is empty.
func (h *GifHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := parseGifLimit(r.URL.Query())

	var (
		records []models.GifRecord
		err     error
	)
	if query != "" {
		records, err = h.catalogue.Search(r.Context(), query, limit)
	} else {
		records, err = h.catalogue.Trending(r.Context(), limit)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []models.GifRecord{}
	}

	w.Header().Set("Cache-Control", "public, max-age=120")
	writeJSON(w, http.StatusOK, struct {
		Success bool               `json:"success"`
		Data    []models.GifRecord `json:"data"`
		Count   int                `json:"count"`
	}{true, records, len(records)})
}

// Find resolves one namespaced gif ID.
func (h *GifHandler) Find(w http.ResponseWriter, r *http.Request) {
	record, err := h.catalogue.Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool              `json:"success"`
		Data    *models.GifRecord `json:"data"`
	}{true, record})
}

// Health reports per-provider upstream availability.
func (h *GifHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Success   bool            `json:"success"`
		Providers map[string]bool `json:"providers"`
	}{true, h.catalogue.Ping(r.Context())})
}

// parseGifLimit accepts either ?l or ?limit; anything out of range falls
// back to a small page.
func parseGifLimit(query map[string][]string) int {
	raw := ""
	if v := query["l"]; len(v) > 0 {
		raw = v[0]
	} else if v := query["limit"]; len(v) > 0 {
		raw = v[0]
	}
	if raw == "" {
		return defaultGifLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 || limit > maxGifLimit {
		return fallbackGifLimit
	}
	return limit
}
