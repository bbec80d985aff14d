// Package model defines the data structures shared across the application.
package model

import "time"

// Unit values accepted by the settings API. The repository stores them as
// plain strings with the same spelling.
const (
	TempCelsius    = "C"
	TempFahrenheit = "F"

	WindKPH = "kph"
	WindMPH = "mph"
)

// User represents a registered account.
//
// Identity comes from Google OAuth, so the stable external identifier is the
// Google account ID. We still generate our own internal xid so our primary
// keys aren't tied to a third party's numbering scheme. The UNIQUE constraint
// on google_id in the DB ensures one Google account maps to exactly one
// app account.
//
// Email, Name and PhotoURL are captured from the Google profile when the
// account is created and are not resynced on later logins; the user can
// rename themselves via PUT /api/user/me afterwards.
type User struct {
	ID             string          `json:"id"`
	GoogleID       string          `json:"googleId"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	PhotoURL       string          `json:"photoUrl"`
	Units          UserUnits       `json:"units"`
	SavedLocations []SavedLocation `json:"savedLocations"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// UserUnits holds the display-unit preferences applied by the frontend.
type UserUnits struct {
	TempUnit string `json:"tempUnit"` // "C" or "F"
	WindUnit string `json:"windUnit"` // "kph" or "mph"
}

// DefaultUnits returns the preferences assigned to a freshly created account.
func DefaultUnits() UserUnits {
	return UserUnits{TempUnit: TempCelsius, WindUnit: WindKPH}
}

// SavedLocation is one entry in a user's saved-locations list.
// The list is persisted as a single JSON column on the user row;
// at most one entry has IsDefault set.
type SavedLocation struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	IsDefault bool    `json:"isDefault,omitempty"`
}
