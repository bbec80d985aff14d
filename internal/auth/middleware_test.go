package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sakif/weather-dashboard/internal/apperror"
	"github.com/sakif/weather-dashboard/internal/model"
)

type stubUserRepo struct {
	users map[string]*model.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound(apperror.CodeUserNotFound, "User not found")
}

func (r *stubUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return nil, apperror.NotFound(apperror.CodeUserNotFound, "User not found")
}

func (r *stubUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func (r *stubUserRepo) UpdateSavedLocations(ctx context.Context, userID string, locations []model.SavedLocation) error {
	return nil
}

// echoHandler records whether it ran and which user (if any) it saw.
type echoHandler struct {
	called bool
	user   *model.User
}

func (h *echoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.user, _ = UserFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func middlewareFixtures(t *testing.T) (*TokenService, *stubUserRepo, *model.User) {
	t.Helper()
	tokens, err := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	user := &model.User{ID: "u1", Email: "sam@example.com", Units: model.DefaultUnits()}
	repo := &stubUserRepo{users: map[string]*model.User{"u1": user}}
	return tokens, repo, user
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Code
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens, repo, user := middlewareFixtures(t)
	access, err := tokens.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	next := &echoHandler{}
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	RequireAuth(tokens, repo)(next).ServeHTTP(rec, req)

	if !next.called {
		t.Fatal("next handler not called")
	}
	if next.user == nil || next.user.ID != "u1" {
		t.Errorf("context user = %+v, want u1", next.user)
	}
}

func TestRequireAuth_NoHeader(t *testing.T) {
	tokens, repo, _ := middlewareFixtures(t)

	next := &echoHandler{}
	rec := httptest.NewRecorder()
	RequireAuth(tokens, repo)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if next.called {
		t.Error("next handler should not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != apperror.CodeNoToken {
		t.Errorf("code = %q, want NO_TOKEN", code)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	_, repo, user := middlewareFixtures(t)
	expired, err := NewTokenService(testAccessSecret, testRefreshSecret, -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	access, err := expired.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	RequireAuth(expired, repo)(&echoHandler{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != apperror.CodeTokenExpired {
		t.Errorf("code = %q, want TOKEN_EXPIRED", code)
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	tokens, repo, _ := middlewareFixtures(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	RequireAuth(tokens, repo)(&echoHandler{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != apperror.CodeInvalidToken {
		t.Errorf("code = %q, want INVALID_TOKEN", code)
	}
}

func TestRequireAuth_RefreshTokenRejected(t *testing.T) {
	// A refresh token must not pass access-token verification.
	tokens, repo, user := middlewareFixtures(t)
	refresh, err := tokens.IssueRefreshToken(user)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	RequireAuth(tokens, repo)(&echoHandler{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != apperror.CodeInvalidToken {
		t.Errorf("code = %q, want INVALID_TOKEN", code)
	}
}

func TestRequireAuth_UserDeleted(t *testing.T) {
	tokens, _, user := middlewareFixtures(t)
	access, err := tokens.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	empty := &stubUserRepo{users: map[string]*model.User{}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	RequireAuth(tokens, empty)(&echoHandler{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != apperror.CodeUserNotFound {
		t.Errorf("code = %q, want USER_NOT_FOUND", code)
	}
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	tokens, repo, _ := middlewareFixtures(t)

	next := &echoHandler{}
	rec := httptest.NewRecorder()
	OptionalAuth(tokens, repo)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather", nil))

	if !next.called {
		t.Fatal("next handler not called")
	}
	if next.user != nil {
		t.Errorf("context user = %+v, want nil", next.user)
	}
}

func TestOptionalAuth_BadTokenStillProceeds(t *testing.T) {
	tokens, repo, _ := middlewareFixtures(t)

	next := &echoHandler{}
	req := httptest.NewRequest(http.MethodGet, "/api/weather", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	OptionalAuth(tokens, repo)(next).ServeHTTP(rec, req)

	if !next.called {
		t.Fatal("next handler not called")
	}
	if next.user != nil {
		t.Errorf("context user = %+v, want nil", next.user)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestOptionalAuth_ValidToken(t *testing.T) {
	tokens, repo, user := middlewareFixtures(t)
	access, err := tokens.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	next := &echoHandler{}
	req := httptest.NewRequest(http.MethodGet, "/api/weather", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	OptionalAuth(tokens, repo)(next).ServeHTTP(rec, req)

	if next.user == nil || next.user.ID != user.ID {
		t.Errorf("context user = %+v, want %s", next.user, user.ID)
	}
}
