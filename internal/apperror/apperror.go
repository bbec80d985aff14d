// Package apperror defines the application error taxonomy.
//
// Services and repositories return *AppError values carrying a sentinel kind
// (for errors.Is branching) and a stable machine-readable code string that
// the HTTP layer forwards to clients. Handlers never inspect error message
// text; they branch on the sentinel and echo the code.
package apperror

import "errors"

// Sentinel kinds. The HTTP layer maps each kind to a status code:
// validation → 400, unauthorized → 401, not found → 404,
// rate limited → 429, unavailable → 503.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnavailable  = errors.New("unavailable")
)

// Client-facing code strings. These are part of the API contract (the
// frontend switches on them) so they must never change spelling.
const (
	CodeNoToken             = "NO_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeNoRefreshToken      = "NO_REFRESH_TOKEN"
	CodeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeLocationNotFound    = "LOCATION_NOT_FOUND"
	CodeCityNotFound        = "CITY_NOT_FOUND"
	CodeGeocodingFailed     = "GEOCODING_FAILED"
	CodeInvalidAPIKey       = "INVALID_API_KEY"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeWeatherServiceError = "WEATHER_SERVICE_ERROR"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError is a client-facing error with a stable code.
type AppError struct {
	Err     error  // sentinel kind, matched with errors.Is
	Code    string // machine-readable code, e.g. "TOKEN_EXPIRED"
	Message string // human-readable description
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Unauthorized returns a 401-mapped error with the given code.
func Unauthorized(code, message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Code: code, Message: message}
}

// NotFound returns a 404-mapped error with the given code.
func NotFound(code, message string) *AppError {
	return &AppError{Err: ErrNotFound, Code: code, Message: message}
}

// ValidationFailed returns a 400-mapped error.
func ValidationFailed(message string) *AppError {
	return &AppError{Err: ErrValidation, Code: CodeValidationError, Message: message}
}

// RateLimited returns a 429-mapped error with the given code.
func RateLimited(code, message string) *AppError {
	return &AppError{Err: ErrRateLimited, Code: code, Message: message}
}

// Unavailable returns a 503-mapped error with the given code.
// Used when an upstream weather or geocoding provider is unreachable.
func Unavailable(code, message string) *AppError {
	return &AppError{Err: ErrUnavailable, Code: code, Message: message}
}
