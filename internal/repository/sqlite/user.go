package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, google_id, email, name, photo_url, temp_unit, wind_unit, saved_locations, created_at, updated_at`

// Create inserts a new user row, assigning the internal ID and timestamps.
//
// There is deliberately no upsert here: profile fields are written once at
// account creation and never resynced from Google, so a second INSERT for
// the same google_id should fail on the UNIQUE constraint. The auth service
// treats that failure as "somebody else won the race" and re-reads.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.SavedLocations == nil {
		user.SavedLocations = []model.SavedLocation{}
	}

	locations, err := json.Marshal(user.SavedLocations)
	if err != nil {
		return fmt.Errorf("sqlite: encoding saved locations: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.PhotoURL,
		user.Units.TempUnit,
		user.Units.WindUnit,
		string(locations),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (googleID=%s): %w", user.GoogleID, err)
	}
	return nil
}

// GetByID retrieves a user by internal ID.
// Returns a USER_NOT_FOUND apperror if no such row exists.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(apperror.CodeUserNotFound, "User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByGoogleID retrieves a user by Google account ID.
func (db *DB) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(apperror.CodeUserNotFound, "User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by google_id %s: %w", googleID, err)
	}
	return user, nil
}

// Update persists the mutable profile fields (name, units) and bumps
// updated_at. Email, photo and google_id are immutable after creation.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, temp_unit = ?, wind_unit = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Units.TempUnit,
		user.Units.WindUnit,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound(apperror.CodeUserNotFound, "User not found")
	}
	return nil
}

// UpdateSavedLocations replaces the saved-locations list wholesale.
func (db *DB) UpdateSavedLocations(ctx context.Context, userID string, locations []model.SavedLocation) error {
	if locations == nil {
		locations = []model.SavedLocation{}
	}
	encoded, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("sqlite: encoding saved locations: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET saved_locations = ?, updated_at = ? WHERE id = ?`,
		string(encoded),
		time.Now().UTC(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating saved locations for user %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound(apperror.CodeUserNotFound, "User not found")
	}
	return nil
}

// scanUser reads one user row. The saved_locations column is normalized
// here, once, at the store boundary: anything that doesn't decode as a JSON
// array of locations becomes an empty list, so no read site ever has to
// re-check the shape.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u            model.User
		rawLocations string
	)
	err := row.Scan(
		&u.ID,
		&u.GoogleID,
		&u.Email,
		&u.Name,
		&u.PhotoURL,
		&u.Units.TempUnit,
		&u.Units.WindUnit,
		&rawLocations,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rawLocations), &u.SavedLocations); err != nil || u.SavedLocations == nil {
		u.SavedLocations = []model.SavedLocation{}
	}
	return &u, nil
}
