package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/apollo-music/songvault"
)

// Error codes carried in ErrorResponse.Error.
const (
	CodeInvalidInput     = "invalid_input"
	CodeNotFound         = "not_found"
	CodePayloadTooLarge  = "payload_too_large"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternal         = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// WriteError writes an ErrorResponse. The returned error is the body encode
// failure, if any.
func WriteError(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// HandleError maps err onto a status and error code. Internal errors are
// logged to logger and replaced by a generic message.
func HandleError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var (
		tooLarge *http.MaxBytesError
		writeErr error
	)

	switch {
	case errors.As(err, &tooLarge):
		writeErr = WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "File size exceeds maximum limit!")
	case errors.Is(err, songvault.ErrNotFound):
		writeErr = WriteError(w, http.StatusNotFound, CodeNotFound, "Resource not found")
	case errors.Is(err, songvault.ErrInvalidInput):
		writeErr = WriteError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeErr = WriteError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}

	if writeErr != nil {
		logger.Warn("write error response", "error", writeErr)
	}
}

func WriteJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
