// Package config loads and validates runtime configuration from the
// environment.
//
// Validation is eager: main calls Load() before anything else, and a missing
// or malformed value is a fatal startup error. A server that boots with a
// short JWT secret or no Google credentials would only fail at the first
// login attempt, which is much harder to diagnose than a refusal to start.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Geocoding provider names accepted in GEOCODING_PROVIDER.
const (
	GeocodeOpenWeather = "openweather"
	GeocodeOpenCage    = "opencage"
)

// minSecretLen is the minimum length for JWT signing secrets.
// 32 characters of random data gives the HMAC key enough entropy.
const minSecretLen = 32

// Config aggregates all runtime configuration for the server.
type Config struct {
	Port        int
	Environment string // "development", "production" or "test"
	LogLevel    string

	// ClientOrigin is the frontend origin used for OAuth redirects and CORS.
	ClientOrigin string

	// JWT signing configuration. The two secrets must differ so an access
	// token can never pass the refresh verifier or vice versa.
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration

	// Google OAuth application credentials.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// Weather/geocoding upstream configuration.
	OpenWeatherAPIKey string
	GeocodingProvider string
	GeocodingAPIKey   string // required when GeocodingProvider is "opencage"

	DBPath string
}

// Load reads configuration from environment variables and validates it.
// All problems are collected and returned together so a broken deployment
// surfaces every missing variable at once, not one per restart.
func Load() (Config, error) {
	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ClientOrigin:       os.Getenv("CLIENT_ORIGIN"),
		JWTAccessSecret:    os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:   os.Getenv("JWT_REFRESH_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		GeocodingProvider:  getEnv("GEOCODING_PROVIDER", GeocodeOpenWeather),
		GeocodingAPIKey:    os.Getenv("GEOCODING_API_KEY"),
		DBPath:             getEnv("DB_PATH", "data/weather.db"),
	}

	var problems []error

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		problems = append(problems, fmt.Errorf("PORT: not a number: %q", os.Getenv("PORT")))
	}
	cfg.Port = port

	cfg.JWTAccessTTL, err = parseDuration("JWT_ACCESS_EXPIRES", 15*time.Minute)
	if err != nil {
		problems = append(problems, err)
	}
	cfg.JWTRefreshTTL, err = parseDuration("JWT_REFRESH_EXPIRES", 7*24*time.Hour)
	if err != nil {
		problems = append(problems, err)
	}

	if len(cfg.JWTAccessSecret) < minSecretLen {
		problems = append(problems, fmt.Errorf("JWT_ACCESS_SECRET: must be at least %d characters", minSecretLen))
	}
	if len(cfg.JWTRefreshSecret) < minSecretLen {
		problems = append(problems, fmt.Errorf("JWT_REFRESH_SECRET: must be at least %d characters", minSecretLen))
	}
	if cfg.JWTAccessSecret != "" && cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		problems = append(problems, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}

	if err := checkURL("CLIENT_ORIGIN", cfg.ClientOrigin); err != nil {
		problems = append(problems, err)
	}
	if cfg.GoogleClientID == "" {
		problems = append(problems, errors.New("GOOGLE_CLIENT_ID: required"))
	}
	if cfg.GoogleClientSecret == "" {
		problems = append(problems, errors.New("GOOGLE_CLIENT_SECRET: required"))
	}
	if err := checkURL("GOOGLE_CALLBACK_URL", cfg.GoogleCallbackURL); err != nil {
		problems = append(problems, err)
	}
	if cfg.OpenWeatherAPIKey == "" {
		problems = append(problems, errors.New("OPENWEATHER_API_KEY: required"))
	}

	switch cfg.GeocodingProvider {
	case GeocodeOpenWeather:
	case GeocodeOpenCage:
		if cfg.GeocodingAPIKey == "" {
			problems = append(problems, errors.New("GEOCODING_API_KEY: required when GEOCODING_PROVIDER is opencage"))
		}
	default:
		problems = append(problems, fmt.Errorf("GEOCODING_PROVIDER: unknown provider %q", cfg.GeocodingProvider))
	}

	if len(problems) > 0 {
		return Config{}, errors.Join(problems...)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production hardening
// (Secure cookies, generic error messages).
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (use Go syntax, e.g. 15m or 168h)", key, value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be positive, got %q", key, value)
	}
	return d, nil
}

func checkURL(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s: required", key)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: not a valid URL: %q", key, value)
	}
	return nil
}
