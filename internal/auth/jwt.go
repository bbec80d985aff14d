// Package auth provides the JWT token lifecycle and the Google OAuth bridge.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Browser visits /api/auth/google → redirected to Google's consent screen
//  2. Google calls back /api/auth/google/callback with a code
//  3. Server exchanges the code for a Google profile, looks up or creates the user
//  4. Server issues two JWTs: a short-lived access token handed to the
//     frontend in the redirect fragment, and a long-lived refresh token set
//     as an HttpOnly cookie
//  5. API calls carry "Authorization: Bearer <access>"; when it expires the
//     frontend calls /api/auth/refresh with the cookie to get a fresh one
//
// Both tokens are stateless; there is no server-side session table. A login
// lives exactly as long as its refresh token, unless the cookie is cleared.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/weather-dashboard/internal/model"
)

// Issuer and audience baked into every token. Verification requires an
// exact match, so tokens minted by other apps sharing a secret (or by a
// different deployment of this app) are rejected.
const (
	tokenIssuer   = "weather-app"
	tokenAudience = "weather-app-client"
)

// Verification failures collapse into two kinds. Callers branch with
// errors.Is rather than inspecting message text: the middleware maps
// ErrTokenExpired to TOKEN_EXPIRED and everything else to INVALID_TOKEN.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// Payload is the identity a verified token asserts. Only the subject user ID
// is trusted for lookups; email rides along for logging and convenience.
type Payload struct {
	UserID string
	Email  string
}

// TokenService mints and verifies the two token kinds.
//
// Access and refresh tokens are signed with distinct secrets and distinct
// lifetimes. Distinct secrets mean a leaked long-lived refresh token is only
// useful against the cookie-scoped refresh endpoint: it can never pass the
// access-token verifier guarding the API.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService with the given secrets and
// lifetimes. The secrets must differ; length validation (≥32 chars) happens
// in the config layer before the process accepts traffic.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// claims embeds jwt.RegisteredClaims (sub, iss, aud, exp, iat) and adds the
// user's email as a private claim.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs a short-lived access token for the user.
func (s *TokenService) IssueAccessToken(user *model.User) (string, error) {
	return s.issue(user, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the user.
func (s *TokenService) IssueRefreshToken(user *model.User) (string, error) {
	return s.issue(user, s.refreshSecret, s.refreshTTL)
}

// RefreshTTL returns the refresh-token lifetime, used by the auth handler to
// set the cookie Max-Age so cookie and token expire together.
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *TokenService) issue(user *model.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken validates an access token and returns its payload.
// The returned error matches ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) VerifyAccessToken(tokenStr string) (Payload, error) {
	return s.verify(tokenStr, s.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its payload.
// A token signed with the access secret fails here (and vice versa) because
// the secrets differ; the signature check itself enforces the token kind.
func (s *TokenService) VerifyRefreshToken(tokenStr string) (Payload, error) {
	return s.verify(tokenStr, s.refreshSecret)
}

func (s *TokenService) verify(tokenStr string, secret []byte) (Payload, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Pinning HS256 closes the algorithm-confusion hole where an
			// attacker downgrades to "none" or swaps to an RSA public key.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Expiry is the one failure clients can recover from (by refreshing),
		// so it gets its own kind. Everything else is terminally invalid.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return Payload{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Payload{}, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}
	if c.Subject == "" {
		return Payload{}, fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}

	return Payload{UserID: c.Subject, Email: c.Email}, nil
}
