// Package handler contains the HTTP handlers for the API surface.
//
// Handlers decode requests, call services, and render JSON. All error
// responses use the same {message, code} shape so the frontend has a single
// error-handling path.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/weather-dashboard/internal/apperror"
)

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders err as a {message, code} response. AppError values map
// to a status via their sentinel kind and keep their own code and message;
// anything else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, statusFor(appErr), errorResponse{
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	logger.Error("unhandled error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Message: "An internal error occurred",
		Code:    apperror.CodeInternalError,
	})
}

func statusFor(err *apperror.AppError) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		// Coded but unclassified, e.g. a rejected upstream API key.
		return http.StatusInternalServerError
	}
}
