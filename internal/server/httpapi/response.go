package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/crypton"
)

// Every response carries the success flag; errors add a human-readable
// reason and nothing else.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// writeServiceError maps the service sentinels onto HTTP statuses. Unknown
// errors become an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, crypton.ErrDecryption):
		writeError(w, http.StatusPaymentRequired, "message appears to be invalid")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}
