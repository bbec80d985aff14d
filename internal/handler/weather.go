package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/auth"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/service"
)

// WeatherHandler serves the weather proxy endpoints. Both routes sit behind
// OptionalAuth: anonymous requests get a reduced payload, authenticated
// requests the full one.
type WeatherHandler struct {
	svc    *service.WeatherService
	logger *slog.Logger
}

func NewWeatherHandler(svc *service.WeatherService, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{svc: svc, logger: logger}
}

// HandleWeather returns weather for either ?city= or ?lat=&lon=.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if city := r.URL.Query().Get("city"); city != "" {
		data, err := h.svc.GetWeatherByCity(r.Context(), city, user)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
		return
	}

	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		writeError(w, h.logger, apperror.ValidationFailed("Either city or lat/lon is required"))
		return
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("Invalid latitude"))
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("Invalid longitude"))
		return
	}

	data, err := h.svc.GetWeather(r.Context(), lat, lon, user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// HandleAutocomplete returns city suggestions for a partial query.
func (h *WeatherHandler) HandleAutocomplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if len(query) < 2 || len(query) > 100 {
		writeError(w, h.logger, apperror.ValidationFailed("Query must be between 2 and 100 characters"))
		return
	}

	suggestions, err := h.svc.Autocomplete(r.Context(), query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.AutocompleteResult{"suggestions": suggestions})
}
