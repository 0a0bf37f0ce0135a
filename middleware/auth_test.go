package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corpfest/secret-santa/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tokenString := signToken(t, jwt.MapClaims{"user_id": 42, "role": "employee"})

	var gotUserID int
	var gotRole models.UserRole
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotUserID, err = GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotRole, err = GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
	})

	r := httptest.NewRequest(http.MethodGet, "/santa/state", nil)
	r.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	Authenticate(testSecret)(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42, gotUserID)
	assert.Equal(t, models.RoleEmployee, gotRole)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	r := httptest.NewRequest(http.MethodGet, "/santa/state", nil)
	w := httptest.NewRecorder()

	Authenticate(testSecret)(next).ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "role": "employee"})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	r := httptest.NewRequest(http.MethodGet, "/santa/state", nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	Authenticate(testSecret)(next).ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorize(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	t.Run("admin allowed", func(t *testing.T) {
		called = false
		r := httptest.NewRequest(http.MethodPost, "/santa/admin/draw", nil)
		r = r.WithContext(ContextWithClaims(r.Context(), 1, models.RoleAdmin))
		w := httptest.NewRecorder()

		Authorize(models.RoleAdmin)(next).ServeHTTP(w, r)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("employee rejected", func(t *testing.T) {
		called = false
		r := httptest.NewRequest(http.MethodPost, "/santa/admin/draw", nil)
		r = r.WithContext(ContextWithClaims(r.Context(), 1, models.RoleEmployee))
		w := httptest.NewRecorder()

		Authorize(models.RoleAdmin)(next).ServeHTTP(w, r)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing claims rejected", func(t *testing.T) {
		called = false
		r := httptest.NewRequest(http.MethodPost, "/santa/admin/draw", nil)
		w := httptest.NewRecorder()

		Authorize(models.RoleAdmin)(next).ServeHTTP(w, r)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestGetUserIDFromContext_StringClaim(t *testing.T) {
	tokenString := signToken(t, jwt.MapClaims{"user_id": "17", "role": "employee"})

	var gotUserID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotUserID, err = GetUserIDFromContext(r.Context())
		require.NoError(t, err)
	})

	r := httptest.NewRequest(http.MethodGet, "/santa/state", nil)
	r.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	Authenticate(testSecret)(next).ServeHTTP(w, r)
	assert.Equal(t, 17, gotUserID)
}
