package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/config"
)

const openWeatherDirectBody = `[
	{"name": "Dhaka", "country": "BD", "lat": 23.8103, "lon": 90.4125},
	{"name": "Dhaka Division", "country": "BD", "state": "Dhaka", "lat": 23.9, "lon": 90.3}
]`

const openCageBody = `{
	"results": [
		{
			"components": {"city": "Dhaka", "country": "Bangladesh", "state": "Dhaka Division"},
			"geometry": {"lat": 23.8103, "lng": 90.4125}
		},
		{
			"components": {"village": "Dhaka Khamar", "country": "Bangladesh"},
			"geometry": {"lat": 25.1, "lng": 89.5}
		}
	]
}`

func newOpenWeatherClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURLs(config.GeocodeOpenWeather, "ow-key", "", srv.URL, "")
}

func newOpenCageClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURLs(config.GeocodeOpenCage, "ow-key", "oc-key", "", srv.URL)
}

func TestGeocodeCity_OpenWeather(t *testing.T) {
	client := newOpenWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/direct" {
			t.Errorf("path = %q, want /direct", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("limit = %q, want 1", got)
		}
		w.Write([]byte(openWeatherDirectBody))
	})

	lat, lon, err := client.GeocodeCity(context.Background(), "Dhaka")
	if err != nil {
		t.Fatalf("GeocodeCity() error = %v", err)
	}
	if lat != 23.8103 || lon != 90.4125 {
		t.Errorf("coords = %v,%v", lat, lon)
	}
}

func TestGeocodeCity_NotFound(t *testing.T) {
	client := newOpenWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, _, err := client.GeocodeCity(context.Background(), "Atlantis")

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.CodeCityNotFound {
		t.Errorf("error = %v, want CITY_NOT_FOUND", err)
	}
}

func TestSearchCities_OpenWeather(t *testing.T) {
	client := newOpenWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want 10", got)
		}
		w.Write([]byte(openWeatherDirectBody))
	})

	results, err := client.SearchCities(context.Background(), "dha")
	if err != nil {
		t.Fatalf("SearchCities() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	if results[0].Name != "Dhaka" || results[0].Country != "BD" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].State != "Dhaka" {
		t.Errorf("results[1].State = %q", results[1].State)
	}
}

func TestSearchCities_OpenCage(t *testing.T) {
	client := newOpenCageClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json" {
			t.Errorf("path = %q, want /json", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "oc-key" {
			t.Errorf("key = %q", got)
		}
		w.Write([]byte(openCageBody))
	})

	results, err := client.SearchCities(context.Background(), "dhaka")
	if err != nil {
		t.Fatalf("SearchCities() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	if results[0].Name != "Dhaka" || results[0].Country != "Bangladesh" {
		t.Errorf("results[0] = %+v", results[0])
	}
	// Smaller settlements fall back to the village component.
	if results[1].Name != "Dhaka Khamar" {
		t.Errorf("results[1].Name = %q", results[1].Name)
	}
}

func TestGeocodeCity_UpstreamFailure(t *testing.T) {
	client := newOpenWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := client.GeocodeCity(context.Background(), "Dhaka")

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.CodeGeocodingFailed {
		t.Errorf("error = %v, want GEOCODING_FAILED", err)
	}
}
