// Package weather wraps the OpenWeather REST API.
//
// The client speaks three endpoints of the free tier: /weather (current
// conditions), /forecast (5-day in 3-hour slots) and /air_pollution. All
// responses are mapped into the app's model types here; handlers and
// services never see OpenWeather's wire format.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/model"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client is an OpenWeather API client. All requests use metric units; the
// frontend handles display conversion per user preference.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL creates a Client pointed at a custom base URL.
// Used in tests to target an httptest server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

// CurrentWeather fetches current conditions and the place they describe.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*model.CurrentWeather, *model.LocationInfo, error) {
	var raw currentResponse
	if err := c.get(ctx, "/weather", lat, lon, &raw); err != nil {
		return nil, nil, err
	}
	if len(raw.Weather) == 0 {
		return nil, nil, apperror.Unavailable(apperror.CodeWeatherServiceError, "Weather service returned no conditions")
	}

	current := &model.CurrentWeather{
		Temp:          roundInt(raw.Main.Temp),
		FeelsLike:     roundInt(raw.Main.FeelsLike),
		Condition:     raw.Weather[0].Main,
		Description:   raw.Weather[0].Description,
		Icon:          raw.Weather[0].Icon,
		Humidity:      raw.Main.Humidity,
		WindSpeed:     msToKmh(raw.Wind.Speed),
		WindDirection: raw.Wind.Deg,
		Pressure:      raw.Main.Pressure,
		Visibility:    roundInt(float64(raw.Visibility) / 1000), // m → km
		Sunrise:       unixToRFC3339(raw.Sys.Sunrise),
		Sunset:        unixToRFC3339(raw.Sys.Sunset),
		LastUpdated:   time.Now().UTC().Format(time.RFC3339),
	}
	location := &model.LocationInfo{
		Name:    raw.Name,
		Country: raw.Sys.Country,
		Lat:     raw.Coord.Lat,
		Lon:     raw.Coord.Lon,
	}
	return current, location, nil
}

// HourlyForecast fetches the 3-hourly forecast. The caller caps the slot
// count; this returns whatever the API provides.
func (c *Client) HourlyForecast(ctx context.Context, lat, lon float64) ([]model.HourlyWeather, error) {
	var raw forecastResponse
	if err := c.get(ctx, "/forecast", lat, lon, &raw); err != nil {
		return nil, err
	}

	hourly := make([]model.HourlyWeather, 0, len(raw.List))
	for _, item := range raw.List {
		slot := model.HourlyWeather{
			Time:          unixToRFC3339(item.Dt),
			Temp:          roundInt(item.Main.Temp),
			Precipitation: roundInt(item.Pop * 100),
			WindSpeed:     msToKmh(item.Wind.Speed),
		}
		if len(item.Weather) > 0 {
			slot.Condition = item.Weather[0].Main
			slot.Icon = item.Weather[0].Icon
		}
		hourly = append(hourly, slot)
	}
	return hourly, nil
}

// AirQuality fetches the air pollution index and components.
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (*model.AirQuality, error) {
	var raw airPollutionResponse
	if err := c.get(ctx, "/air_pollution", lat, lon, &raw); err != nil {
		return nil, err
	}
	if len(raw.List) == 0 {
		return nil, apperror.Unavailable(apperror.CodeWeatherServiceError, "Air quality data unavailable")
	}

	entry := raw.List[0]
	return &model.AirQuality{
		AQI:  entry.Main.AQI,
		CO:   entry.Components.CO,
		NO:   entry.Components.NO,
		NO2:  entry.Components.NO2,
		O3:   entry.Components.O3,
		SO2:  entry.Components.SO2,
		PM25: entry.Components.PM25,
		PM10: entry.Components.PM10,
	}, nil
}

// get issues one GET to an OpenWeather endpoint and decodes the response.
// Upstream status codes are translated into the app error taxonomy once,
// here, so every caller sees the same failures.
func (c *Client) get(ctx context.Context, path string, lat, lon float64, out any) error {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("weather: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Unavailable(apperror.CodeWeatherServiceError, "Weather service unavailable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return apperror.NotFound(apperror.CodeLocationNotFound, "Location not found")
	case http.StatusUnauthorized:
		// Our key is bad, not the caller's request. This is a server-side
		// misconfiguration and surfaces as a 500.
		return &apperror.AppError{Code: apperror.CodeInvalidAPIKey, Message: "Invalid API key"}
	case http.StatusTooManyRequests:
		return apperror.RateLimited(apperror.CodeRateLimitExceeded, "API rate limit exceeded")
	default:
		return apperror.Unavailable(apperror.CodeWeatherServiceError, "Weather service unavailable")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("weather: decoding %s response: %w", path, err)
	}
	return nil
}

// Wire formats. OpenWeather returns much more; we unmarshal only what the
// model needs.

type currentResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []weatherCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Name string `json:"name"`
}

type weatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []weatherCondition `json:"weather"`
		Wind    struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   float64 `json:"co"`
			NO   float64 `json:"no"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			SO2  float64 `json:"so2"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

func roundInt(f float64) int {
	return int(math.Round(f))
}

// msToKmh converts wind speed from the API's m/s to km/h.
func msToKmh(ms float64) int {
	return roundInt(ms * 3.6)
}

func unixToRFC3339(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
