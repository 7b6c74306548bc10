package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agilehub/practice-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceErrorResponse maps an engine error onto the wire: validation errors
// become 400 with the offending field, unknown entities become 404, and
// everything else is a 500. Returns any encoding error.
func ServiceErrorResponse(w http.ResponseWriter, err error) error {
	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		return json.NewEncoder(w).Encode(map[string]string{
			"error":   "validation_failed",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	case errors.Is(err, apperrors.ErrInvalidResponse):
		return ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", "Resource not found")
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
