// Package service holds the business logic between the HTTP handlers and
// the repository/auth/weather building blocks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/auth"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/repository"
)

// AuthService orchestrates the login lifecycle: converting a verified Google
// identity into a local account and a token pair, and exchanging refresh
// tokens for fresh access tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// AuthResult bundles everything the callback handler needs: the user, the
// access token for the redirect fragment, and the refresh token for the
// cookie.
type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// RefreshResult is returned by Refresh. The refresh token itself is not
// rotated; only a new access token is minted.
type RefreshResult struct {
	User        *model.User
	AccessToken string
}

// LoginOrRegister resolves a verified Google profile to a local account and
// issues a token pair.
//
// First login creates the account with default preferences (Celsius, km/h,
// no saved locations) and profile fields copied from Google, with "User" as
// the fallback name. Later logins reuse the existing row untouched; profile
// fields are not resynced.
//
// Two first-logins racing for the same Google ID both see "absent" and both
// INSERT; the UNIQUE constraint on google_id fails the loser, which then
// re-reads the winner's row. Either way exactly one account exists.
func (s *AuthService) LoginOrRegister(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	user, err := s.users.GetByGoogleID(ctx, gUser.ID)
	switch {
	case err == nil:
		// Existing account, nothing to write.
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.register(ctx, gUser)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("service/auth: looking up user (googleID=%s): %w", gUser.ID, err)
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing access token for user %s: %w", user.ID, err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing refresh token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) register(ctx context.Context, gUser *auth.GoogleUser) (*model.User, error) {
	name := gUser.Name
	if name == "" {
		name = "User"
	}

	user := &model.User{
		GoogleID:       gUser.ID,
		Email:          gUser.Email,
		Name:           name,
		PhotoURL:       gUser.Picture,
		Units:          model.DefaultUnits(),
		SavedLocations: []model.SavedLocation{},
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost the first-login race: another request created the row between
		// our lookup and insert. The UNIQUE constraint rejected us, so the
		// winner's row is authoritative. Read it and carry on.
		existing, lookupErr := s.users.GetByGoogleID(ctx, gUser.ID)
		if lookupErr != nil {
			return nil, fmt.Errorf("service/auth: creating user (googleID=%s): %w", gUser.ID, err)
		}
		s.logger.Info("concurrent first login resolved",
			slog.String("userID", existing.ID),
			slog.String("googleID", gUser.ID),
		)
		return existing, nil
	}

	s.logger.Info("new user registered",
		slog.String("userID", user.ID),
		slog.String("googleID", gUser.ID),
	)
	return user, nil
}

// Refresh verifies a refresh token and mints a new access token.
//
// The user row is re-read so the response carries current data; nothing
// from the (possibly days-old) token payload is trusted beyond the subject
// ID. The refresh token is not rotated; it stays valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.Unauthorized(apperror.CodeRefreshTokenExpired, "Refresh token expired")
		}
		return nil, apperror.Unauthorized(apperror.CodeInvalidRefreshToken, "Invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing access token for user %s: %w", user.ID, err)
	}

	return &RefreshResult{User: user, AccessToken: accessToken}, nil
}
