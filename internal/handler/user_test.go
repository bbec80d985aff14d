package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/auth"
	"github.com/sakif/weather-dashboard/internal/model"
	"github.com/sakif/weather-dashboard/internal/service"
)

// userRouter mounts the handler on a chi router with the given user injected
// into the context, standing in for the auth middleware.
func userRouter(t *testing.T, repo *fakeUserRepo, user *model.User) http.Handler {
	t.Helper()
	h := NewUserHandler(service.NewUserService(repo, testLogger()), testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), user)))
		})
	})
	r.Get("/api/user/me", h.HandleMe)
	r.Put("/api/user/me", h.HandleUpdateMe)
	r.Get("/api/user/locations", h.HandleLocations)
	r.Post("/api/user/locations", h.HandleAddLocation)
	r.Delete("/api/user/locations/{id}", h.HandleRemoveLocation)
	return r
}

func TestMe(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo)
	router := userRouter(t, repo, user)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.User)
	assert.Equal(t, user.Email, body.User.Email)
}

func TestUpdateMe(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo)
	router := userRouter(t, repo, user)

	payload := []byte(`{"name": "Samira", "tempUnit": "F"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/user/me", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Samira", body.User.Name)
	assert.Equal(t, model.TempFahrenheit, body.User.Units.TempUnit)
}

func TestUpdateMe_InvalidUnit(t *testing.T) {
	repo := newFakeUserRepo()
	router := userRouter(t, repo, seedUser(t, repo))

	payload := []byte(`{"tempUnit": "K"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/user/me", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeValidationError, body.Code)
}

func TestAddAndListLocations(t *testing.T) {
	repo := newFakeUserRepo()
	router := userRouter(t, repo, seedUser(t, repo))

	payload := []byte(`{"name": "Dhaka", "lat": 23.81, "lon": 90.41, "isDefault": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/locations", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]*model.SavedLocation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created["location"])
	assert.Equal(t, "Dhaka", created["location"].Name)
	assert.True(t, created["location"].IsDefault)
	assert.NotEmpty(t, created["location"].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/locations", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var listed map[string][]model.SavedLocation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed["locations"], 1)
	assert.Equal(t, created["location"].ID, listed["locations"][0].ID)
}

func TestAddLocation_InvalidCoordinates(t *testing.T) {
	repo := newFakeUserRepo()
	router := userRouter(t, repo, seedUser(t, repo))

	payload := []byte(`{"name": "Nowhere", "lat": 95, "lon": 0}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/locations", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveLocation(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo)
	require.NoError(t, repo.UpdateSavedLocations(context.Background(), user.ID, []model.SavedLocation{
		{ID: "loc_1", Name: "Dhaka", Lat: 23.81, Lon: 90.41},
	}))
	router := userRouter(t, repo, user)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/user/locations/loc_1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Location removed successfully", body["message"])
}

func TestRemoveLocation_NotFound(t *testing.T) {
	repo := newFakeUserRepo()
	router := userRouter(t, repo, seedUser(t, repo))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/user/locations/loc_missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeLocationNotFound, body.Code)
}
