package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/identity"
	"github.com/ekaya-inc/ekaya-journal/pkg/logging"
)

// ApiResponse is the envelope for successful JSON responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

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

// errorStatus maps a service error to an HTTP status, error code and message.
// Unauthorized is checked first: a vanished user is an authorization failure
// even though it also carries ErrNotFound.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Authentication required"
	case errors.Is(err, apperrors.ErrDeleteFailed) && errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "delete_failed", "Entry not found"
	case errors.Is(err, apperrors.ErrDeleteFailed):
		return http.StatusInternalServerError, "delete_failed", "Failed to delete entry"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found", "Entry not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, identity.ErrProviderUnavailable):
		return http.StatusBadGateway, "identity_provider_error", "Identity provider unavailable"
	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
}

// writeServiceError logs unexpected failures and writes the mapped error response.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger, msg string, fields ...zap.Field) {
	status, code, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, append(fields, zap.String("error", logging.SanitizeError(err)))...)
	} else {
		logger.Debug(msg, append(fields, zap.String("error", logging.SanitizeError(err)))...)
	}
	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
