package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/weather-dashboard/internal/model"
)

// maxHourlySlots caps the hourly forecast at the first 8 three-hour slots
// (24 hours) of OpenWeather's 5-day forecast response.
const maxHourlySlots = 8

// WeatherProvider is the upstream weather API surface the service needs.
// internal/weather implements it against OpenWeather; tests use fakes.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*model.CurrentWeather, *model.LocationInfo, error)
	HourlyForecast(ctx context.Context, lat, lon float64) ([]model.HourlyWeather, error)
	AirQuality(ctx context.Context, lat, lon float64) (*model.AirQuality, error)
}

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	GeocodeCity(ctx context.Context, city string) (lat, lon float64, err error)
	SearchCities(ctx context.Context, query string) ([]model.AutocompleteResult, error)
}

// WeatherService assembles the dashboard payload from the upstream
// providers and shapes it by authentication status.
type WeatherService struct {
	weather WeatherProvider
	geo     Geocoder
	logger  *slog.Logger
}

// NewWeatherService creates a WeatherService.
func NewWeatherService(weather WeatherProvider, geo Geocoder, logger *slog.Logger) *WeatherService {
	return &WeatherService{weather: weather, geo: geo, logger: logger}
}

// GetWeatherByCity geocodes the city name first, then behaves like GetWeather.
func (s *WeatherService) GetWeatherByCity(ctx context.Context, city string, user *model.User) (*model.WeatherData, error) {
	lat, lon, err := s.geo.GeocodeCity(ctx, city)
	if err != nil {
		return nil, err
	}
	return s.GetWeather(ctx, lat, lon, user)
}

// GetWeather fetches weather for the given coordinates.
//
// Authenticated callers (user != nil) get the full payload: detailed current
// conditions, the hourly forecast and air quality. Guests get current
// conditions with detailed metrics blanked and no forecast; the extra data
// is the carrot for signing in.
//
// A failed air-quality fetch never fails the whole request; the block is
// simply omitted.
func (s *WeatherService) GetWeather(ctx context.Context, lat, lon float64, user *model.User) (*model.WeatherData, error) {
	current, location, err := s.weather.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	data := &model.WeatherData{
		Current:  *current,
		Hourly:   []model.HourlyWeather{},
		Daily:    []model.DailyWeather{}, // daily needs the paid OneCall tier
		Location: *location,
	}

	if user == nil {
		stripDetails(&data.Current)
		return data, nil
	}

	hourly, err := s.weather.HourlyForecast(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("service/weather: fetching forecast: %w", err)
	}
	if len(hourly) > maxHourlySlots {
		hourly = hourly[:maxHourlySlots]
	}
	data.Hourly = hourly

	aqi, err := s.weather.AirQuality(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("air quality fetch failed",
			slog.Float64("lat", lat),
			slog.Float64("lon", lon),
			slog.String("error", err.Error()),
		)
	} else {
		data.AQI = aqi
	}

	return data, nil
}

// Autocomplete returns up to 10 place suggestions for a search query.
// Provider failures degrade to an empty list; a broken geocoder shouldn't
// break typing in the search box.
func (s *WeatherService) Autocomplete(ctx context.Context, query string) ([]model.AutocompleteResult, error) {
	results, err := s.geo.SearchCities(ctx, query)
	if err != nil {
		s.logger.Warn("city search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return []model.AutocompleteResult{}, nil
	}
	if results == nil {
		results = []model.AutocompleteResult{}
	}
	return results, nil
}

// stripDetails zeroes the fields guests don't get.
func stripDetails(c *model.CurrentWeather) {
	c.Humidity = 0
	c.WindSpeed = 0
	c.WindDirection = 0
	c.Pressure = 0
	c.Visibility = 0
	c.UVIndex = 0
	c.Sunrise = ""
	c.Sunset = ""
}
