package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/auth"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/service"
)

type fakeWeatherProvider struct{}

func (f *fakeWeatherProvider) CurrentWeather(ctx context.Context, lat, lon float64) (*model.CurrentWeather, *model.LocationInfo, error) {
	return &model.CurrentWeather{
			Temp:     28,
			Humidity: 74,
			Sunrise:  "2026-08-30T05:45:00Z",
			Sunset:   "2026-08-30T18:20:00Z",
		}, &model.LocationInfo{
			Name: "Dhaka", Country: "BD", Lat: lat, Lon: lon,
		}, nil
}

func (f *fakeWeatherProvider) HourlyForecast(ctx context.Context, lat, lon float64) ([]model.HourlyWeather, error) {
	return make([]model.HourlyWeather, 12), nil
}

func (f *fakeWeatherProvider) AirQuality(ctx context.Context, lat, lon float64) (*model.AirQuality, error) {
	return &model.AirQuality{AQI: 3}, nil
}

type fakeGeocoder struct {
	failCity bool
}

func (f *fakeGeocoder) GeocodeCity(ctx context.Context, city string) (float64, float64, error) {
	if f.failCity {
		return 0, 0, apperror.NotFound(apperror.CodeCityNotFound, "City not found")
	}
	return 23.81, 90.41, nil
}

func (f *fakeGeocoder) SearchCities(ctx context.Context, query string) ([]model.AutocompleteResult, error) {
	return []model.AutocompleteResult{{Name: "Dhaka", Country: "BD", Lat: 23.81, Lon: 90.41}}, nil
}

func weatherHandlerWithUser(geo *fakeGeocoder, user *model.User) (*WeatherHandler, func(*http.Request) *http.Request) {
	svc := service.NewWeatherService(&fakeWeatherProvider{}, geo, testLogger())
	h := NewWeatherHandler(svc, testLogger())
	inject := func(req *http.Request) *http.Request {
		if user == nil {
			return req
		}
		return req.WithContext(auth.WithUser(req.Context(), user))
	}
	return h, inject
}

func TestWeather_ByCoordinates_Guest(t *testing.T) {
	h, inject := weatherHandlerWithUser(&fakeGeocoder{}, nil)

	req := inject(httptest.NewRequest(http.MethodGet, "/api/weather?lat=23.81&lon=90.41", nil))
	rec := httptest.NewRecorder()
	h.HandleWeather(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var data model.WeatherData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 28, data.Current.Temp)
	// Guests get the reduced payload.
	assert.Zero(t, data.Current.Humidity)
	assert.Empty(t, data.Current.Sunrise)
	assert.Empty(t, data.Hourly)
	assert.Nil(t, data.AQI)
}

func TestWeather_ByCoordinates_Authenticated(t *testing.T) {
	user := &model.User{ID: "u1", Email: "sam@example.com", Units: model.DefaultUnits()}
	h, inject := weatherHandlerWithUser(&fakeGeocoder{}, user)

	req := inject(httptest.NewRequest(http.MethodGet, "/api/weather?lat=23.81&lon=90.41", nil))
	rec := httptest.NewRecorder()
	h.HandleWeather(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var data model.WeatherData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 74, data.Current.Humidity)
	assert.Len(t, data.Hourly, 8)
	require.NotNil(t, data.AQI)
	assert.Equal(t, 3, data.AQI.AQI)
}

func TestWeather_ByCity(t *testing.T) {
	h, inject := weatherHandlerWithUser(&fakeGeocoder{}, nil)

	req := inject(httptest.NewRequest(http.MethodGet, "/api/weather?city=Dhaka", nil))
	rec := httptest.NewRecorder()
	h.HandleWeather(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var data model.WeatherData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, "Dhaka", data.Location.Name)
}

func TestWeather_CityNotFound(t *testing.T) {
	h, inject := weatherHandlerWithUser(&fakeGeocoder{failCity: true}, nil)

	req := inject(httptest.NewRequest(http.MethodGet, "/api/weather?city=Atlantis", nil))
	rec := httptest.NewRecorder()
	h.HandleWeather(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeCityNotFound, body.Code)
}

func TestWeather_MissingParams(t *testing.T) {
	h, inject := weatherHandlerWithUser(&fakeGeocoder{}, nil)

	req := inject(httptest.NewRequest(http.MethodGet, "/api/weather", nil))
	rec := httptest.NewRecorder()
	h.HandleWeather(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeather_BadCoordinates(t *testing.T) {
	h, inject := weatherHandlerWithUser(&fakeGeocoder{}, nil)

	req := inject(httptest.NewRequest(http.MethodGet, "/api/weather?lat=abc&lon=90.41", nil))
	rec := httptest.NewRecorder()
	h.HandleWeather(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutocomplete(t *testing.T) {
	h, _ := weatherHandlerWithUser(&fakeGeocoder{}, nil)

	rec := httptest.NewRecorder()
	h.HandleAutocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/autocomplete?query=dha", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]model.AutocompleteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["suggestions"], 1)
	assert.Equal(t, "Dhaka", body["suggestions"][0].Name)
}

func TestAutocomplete_QueryTooShort(t *testing.T) {
	h, _ := weatherHandlerWithUser(&fakeGeocoder{}, nil)

	rec := httptest.NewRecorder()
	h.HandleAutocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/autocomplete?query=d", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
