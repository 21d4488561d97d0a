package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
)

// errorResponse is the JSON error body shared by every endpoint.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes the shared error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// respondError maps a domain error to its HTTP representation. Every error
// in the taxonomy is recoverable: the client may retry the triggering
// action once it has read the message.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, "busy", unwrapMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", "you do not have access to this trip")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "trip not found")
	case errors.Is(err, domain.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, "generation_failed", "itinerary generation failed, try again")
	case errors.Is(err, domain.ErrMalformedItinerary):
		writeError(w, http.StatusBadGateway, "malformed_itinerary", "could not parse the generated itinerary, try again")
	case errors.Is(err, domain.ErrInvalidItineraryShape):
		writeError(w, http.StatusBadGateway, "invalid_itinerary_shape", "generated itinerary had an unexpected shape, try again")
	default:
		slog.Error("unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, "store_failure", "something went wrong, try again")
	}
}

// requestError writes a 422 for a request rejected before reaching the
// service layer (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.Session.Save: operation already in progress" → "operation already in progress"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, prefix := range []string{
		"service.TripService.Create: ",
		"service.TripService.Update: ",
		"service.Session.Generate: ",
		"service.Session.Save: ",
		"service.Session.AddActivity: ",
		"service.Session.RemoveActivity: ",
		"validation error: ",
	} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
