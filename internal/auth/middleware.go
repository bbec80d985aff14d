package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the user value we attach.
type contextKey string

const userKey contextKey = "user"

// RequireAuth enforces authentication on protected routes.
//
// It extracts the bearer token from the Authorization header, verifies it as
// an access token, loads the user it names, and attaches the user to the
// request context. Each failure maps to a stable code:
//
//	missing/malformed header → 401 NO_TOKEN
//	expired token            → 401 TOKEN_EXPIRED
//	any other verify failure → 401 INVALID_TOKEN
//	subject user gone        → 404 USER_NOT_FOUND
//
// Exactly one token verification and one store lookup per request, no
// retries, no caching.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth runs the same pipeline as RequireAuth but swallows every
// failure: missing header, bad token, vanished user. The request simply
// proceeds anonymous. Routes like /api/weather use this to serve a reduced
// payload to guests; an identity problem must never abort a request that
// doesn't strictly need identity.
func OptionalAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := authenticate(r, tokens, users); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a child context carrying the authenticated user, the same
// way the middlewares attach it.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns (nil, false) on anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// authenticate is the shared verification pipeline. It returns an
// *apperror.AppError so both middlewares (and tests) can branch on the kind.
func authenticate(r *http.Request, tokens *TokenService, users repository.UserRepository) (*model.User, error) {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return nil, apperror.Unauthorized(apperror.CodeNoToken, "Access token required")
	}

	payload, err := tokens.VerifyAccessToken(tokenStr)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperror.Unauthorized(apperror.CodeTokenExpired, "Access token expired")
		}
		return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "Invalid access token")
	}

	// Only the subject is trusted; the user row is re-read so downstream
	// handlers always see current profile data.
	user, err := users.GetByID(r.Context(), payload.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// writeAuthError renders an authentication failure as the standard
// {message, code} JSON error body. Kept local to avoid importing the
// handler package from middleware.
func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]string{
		"message": "An internal error occurred",
		"code":    apperror.CodeInternalError,
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}
		if status != http.StatusInternalServerError {
			body["message"] = appErr.Message
			body["code"] = appErr.Code
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
