package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/auth"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/service"
)

// UserHandler serves the authenticated profile and saved-location endpoints.
// All routes are mounted behind RequireAuth, so the user is always present
// in the request context.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type userResponse struct {
	User *model.User `json:"user"`
}

// HandleMe returns the current user's profile.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized(apperror.CodeNoToken, "No token provided"))
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// HandleUpdateMe updates the current user's name and/or units.
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized(apperror.CodeNoToken, "No token provided"))
		return
	}

	var update service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("Invalid request body"))
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: updated})
}

// HandleLocations lists the current user's saved locations.
func (h *UserHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized(apperror.CodeNoToken, "No token provided"))
		return
	}

	locations, err := h.svc.Locations(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.SavedLocation{"locations": locations})
}

// HandleAddLocation saves a new location for the current user.
func (h *UserHandler) HandleAddLocation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized(apperror.CodeNoToken, "No token provided"))
		return
	}

	var loc service.NewLocation
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("Invalid request body"))
		return
	}

	saved, err := h.svc.AddLocation(r.Context(), user.ID, loc)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*model.SavedLocation{"location": saved})
}

// HandleRemoveLocation deletes one of the current user's saved locations.
func (h *UserHandler) HandleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized(apperror.CodeNoToken, "No token provided"))
		return
	}

	if err := h.svc.RemoveLocation(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Location removed successfully"})
}
