package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/auth"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/service"
)

const (
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 600 // seconds; the Google hop should be quick

	refreshCookieName = "refreshToken"
)

// oauthProvider is the part of auth.GoogleProvider the handler needs.
type oauthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthHandler serves the OAuth login flow and token lifecycle endpoints.
type AuthHandler struct {
	google       oauthProvider
	svc          *service.AuthService
	clientOrigin string
	secureCookie bool
	refreshTTL   time.Duration
	logger       *slog.Logger
}

func NewAuthHandler(google oauthProvider, svc *service.AuthService, clientOrigin string, secureCookie bool, refreshTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		google:       google,
		svc:          svc,
		clientOrigin: clientOrigin,
		secureCookie: secureCookie,
		refreshTTL:   refreshTTL,
		logger:       logger,
	}
}

// HandleGoogleLogin starts the OAuth flow: sets a CSRF state cookie and
// redirects the browser to Google's consent screen.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthURL(state), http.StatusFound)
}

// HandleGoogleCallback completes the OAuth flow. On success it sets the
// refresh token cookie and redirects to the frontend with the access token
// in the URL fragment; every failure redirects to the frontend error page.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn("oauth consent denied", "error", errParam)
		h.redirectError(w, r)
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || state != cookie.Value {
		h.logger.Warn("oauth state mismatch")
		h.redirectError(w, r)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("oauth code exchange failed", "error", err)
		h.redirectError(w, r)
		return
	}

	result, err := h.svc.LoginOrRegister(r.Context(), gUser)
	if err != nil {
		h.logger.Error("login failed", "error", err)
		h.redirectError(w, r)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	http.Redirect(w, r, h.clientOrigin+"/#/auth/success?token="+result.AccessToken, http.StatusFound)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

// HandleRefresh mints a new access token from a refresh token. The token is
// taken from the request body if present, otherwise from the cookie.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, apperror.ValidationFailed("Invalid request body"))
		return
	}

	token := req.RefreshToken
	if token == "" {
		if cookie, err := r.Cookie(refreshCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		writeError(w, h.logger, apperror.Unauthorized(apperror.CodeNoRefreshToken, "No refresh token provided"))
		return
	}

	result, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: result.AccessToken,
		User:        result.User,
	})
}

// HandleLogout clears the refresh token cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.clientOrigin+"/#/auth/error", http.StatusFound)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
