// Package repository declares the persistence interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/weather-dashboard/internal/model"
)

// UserRepository is the credential store: one row per account, keyed by our
// internal ID with a UNIQUE constraint on the Google account ID.
//
// Lookups for absent rows return an apperror.NotFound with code
// USER_NOT_FOUND so callers can pass the error straight to the HTTP layer.
type UserRepository interface {
	// Create inserts a new user, assigning ID, CreatedAt and UpdatedAt.
	// Inserting a second row for the same GoogleID fails on the UNIQUE
	// constraint; the auth service resolves that race by re-reading.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// Update persists name and unit preferences and refreshes UpdatedAt.
	Update(ctx context.Context, user *model.User) error

	// UpdateSavedLocations replaces the user's saved-locations list.
	UpdateSavedLocations(ctx context.Context, userID string, locations []model.SavedLocation) error
}
