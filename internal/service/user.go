package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/repository"
)

// UserService handles profile and saved-location updates.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// ProfileUpdate is a partial update: nil fields are left unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	TempUnit *string `json:"tempUnit,omitempty"`
	WindUnit *string `json:"windUnit,omitempty"`
}

func (u ProfileUpdate) validate() error {
	if u.Name != nil && (len(*u.Name) < 1 || len(*u.Name) > 100) {
		return apperror.ValidationFailed("name must be between 1 and 100 characters")
	}
	if u.TempUnit != nil && *u.TempUnit != model.TempCelsius && *u.TempUnit != model.TempFahrenheit {
		return apperror.ValidationFailed("tempUnit must be C or F")
	}
	if u.WindUnit != nil && *u.WindUnit != model.WindKPH && *u.WindUnit != model.WindMPH {
		return apperror.ValidationFailed("windUnit must be kph or mph")
	}
	return nil
}

// UpdateProfile applies a partial profile update and returns the fresh user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.TempUnit != nil {
		user.Units.TempUnit = *update.TempUnit
	}
	if update.WindUnit != nil {
		user.Units.WindUnit = *update.WindUnit
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: updating user %s: %w", userID, err)
	}
	return user, nil
}

// NewLocation is the payload for AddLocation.
type NewLocation struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	IsDefault bool    `json:"isDefault,omitempty"`
}

func (l NewLocation) validate() error {
	if l.Name == "" {
		return apperror.ValidationFailed("name is required")
	}
	if l.Lat < -90 || l.Lat > 90 {
		return apperror.ValidationFailed("lat must be between -90 and 90")
	}
	if l.Lon < -180 || l.Lon > 180 {
		return apperror.ValidationFailed("lon must be between -180 and 180")
	}
	return nil
}

// Locations returns the user's saved locations.
func (s *UserService) Locations(ctx context.Context, userID string) ([]model.SavedLocation, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.SavedLocations, nil
}

// AddLocation appends a saved location. When the new location is marked as
// default, the default flag is cleared from every existing entry first;
// at most one location is ever the default.
func (s *UserService) AddLocation(ctx context.Context, userID string, loc NewLocation) (*model.SavedLocation, error) {
	if err := loc.validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	locations := user.SavedLocations
	if loc.IsDefault {
		for i := range locations {
			locations[i].IsDefault = false
		}
	}

	saved := model.SavedLocation{
		ID:        "loc_" + xid.New().String(),
		Name:      loc.Name,
		Lat:       loc.Lat,
		Lon:       loc.Lon,
		IsDefault: loc.IsDefault,
	}
	locations = append(locations, saved)

	if err := s.users.UpdateSavedLocations(ctx, userID, locations); err != nil {
		return nil, fmt.Errorf("service/user: saving locations for user %s: %w", userID, err)
	}

	s.logger.Info("location saved",
		slog.String("userID", userID),
		slog.String("locationID", saved.ID),
		slog.String("name", saved.Name),
	)
	return &saved, nil
}

// RemoveLocation deletes a saved location by ID.
func (s *UserService) RemoveLocation(ctx context.Context, userID, locationID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	locations := user.SavedLocations
	remaining := locations[:0]
	found := false
	for _, l := range locations {
		if l.ID == locationID {
			found = true
			continue
		}
		remaining = append(remaining, l)
	}
	if !found {
		return apperror.NotFound(apperror.CodeLocationNotFound, "Location not found")
	}

	if err := s.users.UpdateSavedLocations(ctx, userID, remaining); err != nil {
		return fmt.Errorf("service/user: saving locations for user %s: %w", userID, err)
	}
	return nil
}
