package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"hotel_listings/internal/domain"
)

// errorBody is the failure envelope; Error carries an optional diagnostic.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type successBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const (
	msgHotelNotFound  = "Hotel not found"
	msgRoomNotFound   = "Room not found"
	msgNoImagePaths   = "No image paths provided"
	msgNoFiles        = "No files uploaded"
	msgTitleRequired  = "Title is required"
	msgInvalidPayload = "Invalid request payload"
	msgSourceNotFound = "Source image not found"
	msgUnsupported    = "Unsupported media type"
	msgInternal       = "Internal Server Error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message, diag string) {
	writeJSON(w, status, errorBody{Status: "error", Message: message, Error: diag})
}

// mapError turns a service error into a status and a stable message.
// Image persistence failures are reported as 5xx, matching the upload contract.
func mapError(err error) (status int, message, diag string) {
	switch {
	case errors.Is(err, domain.ErrHotelNotFound):
		return http.StatusNotFound, msgHotelNotFound, ""
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound, msgRoomNotFound, ""
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found", ""
	case errors.Is(err, domain.ErrTitleRequired):
		return http.StatusBadRequest, msgTitleRequired, ""
	case errors.Is(err, domain.ErrNoFilesProvided):
		return http.StatusBadRequest, msgNoImagePaths, ""
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, msgInvalidPayload, err.Error()
	case errors.Is(err, domain.ErrSourceNotFound):
		return http.StatusInternalServerError, msgSourceNotFound, err.Error()
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return http.StatusInternalServerError, msgUnsupported, err.Error()
	case errors.Is(err, domain.ErrCorruptRecord):
		return http.StatusInternalServerError, msgInternal, "corrupt hotel record"
	}
	return http.StatusInternalServerError, msgInternal, err.Error()
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, diag := mapError(err)
	if status >= 500 {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, message, diag)
}
