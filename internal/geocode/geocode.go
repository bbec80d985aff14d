// Package geocode resolves place names to coordinates.
//
// Two providers are supported, selected by configuration: OpenWeather's
// geocoding API (reuses the weather API key, the default) and OpenCage
// (separate key, better international coverage). Both are hidden behind the
// same two methods so the rest of the app never knows which is in use.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/config"
	"github.com/sakif/weather-dashboard/internal/model"
)

const (
	defaultOpenWeatherGeoURL = "https://api.openweathermap.org/geo/1.0"
	defaultOpenCageURL       = "https://api.opencagedata.com/geocode/v1"

	maxSuggestions = 10
)

// Client geocodes against the configured provider.
type Client struct {
	provider       string
	openCageKey    string
	openWeatherKey string
	httpClient     *http.Client

	openWeatherURL string
	openCageURL    string
}

// NewClient creates a Client. provider is one of the config.Geocode*
// constants; openCageKey may be empty unless the provider is opencage.
func NewClient(provider, openWeatherKey, openCageKey string) *Client {
	return &Client{
		provider:       provider,
		openWeatherKey: openWeatherKey,
		openCageKey:    openCageKey,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		openWeatherURL: defaultOpenWeatherGeoURL,
		openCageURL:    defaultOpenCageURL,
	}
}

// NewClientWithBaseURLs creates a Client pointed at custom endpoints,
// for tests against an httptest server.
func NewClientWithBaseURLs(provider, openWeatherKey, openCageKey, openWeatherURL, openCageURL string) *Client {
	c := NewClient(provider, openWeatherKey, openCageKey)
	c.openWeatherURL = openWeatherURL
	c.openCageURL = openCageURL
	return c
}

// GeocodeCity resolves a city name to coordinates.
// An unresolvable name returns a CITY_NOT_FOUND apperror.
func (c *Client) GeocodeCity(ctx context.Context, city string) (float64, float64, error) {
	if c.provider == config.GeocodeOpenCage {
		results, err := c.searchOpenCage(ctx, city, 1)
		if err != nil {
			return 0, 0, err
		}
		if len(results) == 0 {
			return 0, 0, apperror.NotFound(apperror.CodeCityNotFound, "City not found")
		}
		return results[0].Lat, results[0].Lon, nil
	}

	results, err := c.searchOpenWeather(ctx, city, 1)
	if err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, apperror.NotFound(apperror.CodeCityNotFound, "City not found")
	}
	return results[0].Lat, results[0].Lon, nil
}

// SearchCities returns up to 10 autocomplete suggestions for a query.
func (c *Client) SearchCities(ctx context.Context, query string) ([]model.AutocompleteResult, error) {
	if c.provider == config.GeocodeOpenCage {
		return c.searchOpenCage(ctx, query, maxSuggestions)
	}
	return c.searchOpenWeather(ctx, query, maxSuggestions)
}

func (c *Client) searchOpenWeather(ctx context.Context, query string, limit int) ([]model.AutocompleteResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("appid", c.openWeatherKey)

	var raw []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		State   string  `json:"state"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := c.get(ctx, c.openWeatherURL+"/direct?"+params.Encode(), &raw); err != nil {
		return nil, err
	}

	results := make([]model.AutocompleteResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, model.AutocompleteResult{
			Name:    r.Name,
			Country: r.Country,
			State:   r.State,
			Lat:     r.Lat,
			Lon:     r.Lon,
		})
	}
	return results, nil
}

func (c *Client) searchOpenCage(ctx context.Context, query string, limit int) ([]model.AutocompleteResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.openCageKey)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("no_annotations", "1")

	var raw struct {
		Results []struct {
			Components struct {
				City    string `json:"city"`
				Town    string `json:"town"`
				Village string `json:"village"`
				Country string `json:"country"`
				State   string `json:"state"`
			} `json:"components"`
			Geometry struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.get(ctx, c.openCageURL+"/json?"+params.Encode(), &raw); err != nil {
		return nil, err
	}

	results := make([]model.AutocompleteResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		// OpenCage splits the place name across component fields depending
		// on settlement size.
		name := r.Components.City
		if name == "" {
			name = r.Components.Town
		}
		if name == "" {
			name = r.Components.Village
		}
		if name == "" {
			name = "Unknown"
		}
		results = append(results, model.AutocompleteResult{
			Name:    name,
			Country: r.Components.Country,
			State:   r.Components.State,
			Lat:     r.Geometry.Lat,
			Lon:     r.Geometry.Lng,
		})
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("geocode: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.NotFound(apperror.CodeGeocodingFailed, "Failed to find location")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperror.NotFound(apperror.CodeGeocodingFailed, "Failed to find location")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geocode: decoding response: %w", err)
	}
	return nil
}
