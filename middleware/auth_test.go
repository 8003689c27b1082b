package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarsenovv/competition-platform/models"
)

func issueTestToken(t *testing.T, manager *JWTManager, userID int, role models.UserRole) string {
	t.Helper()
	token, err := manager.IssueToken(&models.User{ID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func TestAuthenticateRoundtrip(t *testing.T) {
	manager := NewJWTManager("test-secret")
	token := issueTestToken(t, manager, 42, models.RoleJudge)

	var gotUserID int
	var gotRole models.UserRole
	handler := manager.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotUserID, err = GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotRole, err = GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42, gotUserID)
	assert.Equal(t, models.RoleJudge, gotRole)
}

func TestAuthenticateAcceptsQueryToken(t *testing.T) {
	manager := NewJWTManager("test-secret")
	token := issueTestToken(t, manager, 7, models.RoleStudent)

	called := false
	handler := manager.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// Websocket-рукопожатие: токен приходит query-параметром.
	req := httptest.NewRequest(http.MethodGet, "/live?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestAuthenticateRejectsMissingAndBadTokens(t *testing.T) {
	manager := NewJWTManager("test-secret")
	handler := manager.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	token := issueTestToken(t, NewJWTManager("other-secret"), 42, models.RoleJudge)

	manager := NewJWTManager("test-secret")
	handler := manager.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizeByRole(t *testing.T) {
	manager := NewJWTManager("test-secret")

	protected := manager.Authenticate(
		Authorize(models.RoleJudge, models.RoleAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		),
	)

	judgeToken := issueTestToken(t, manager, 1, models.RoleJudge)
	req := httptest.NewRequest(http.MethodPost, "/scores", nil)
	req.Header.Set("Authorization", "Bearer "+judgeToken)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	studentToken := issueTestToken(t, manager, 2, models.RoleStudent)
	req = httptest.NewRequest(http.MethodPost, "/scores", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
