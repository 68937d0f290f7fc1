package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/service"
)

type errorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, fields []FieldError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation error", Errors: fields})
}

// writeServiceError maps service and domain errors to a status code. Anything
// unrecognised is logged and reported as fallback with a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound):
		writeError(w, http.StatusNotFound, "Application not found")
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, domain.ErrAlreadyReviewed):
		writeError(w, http.StatusConflict, "Application has already been reviewed")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		logger.ErrorContext(r.Context(), fallback, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
