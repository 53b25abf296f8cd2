package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lostlink/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(&testLogWriter{t})

	return &Service{
		logger: logger,
		config: &types.Config{
			TokenIssuer: "lostlink",
			TokenTTLMin: 720,
		},
		signingKey: []byte("0123456789abcdef0123456789abcdef"),
	}
}

type testLogWriter struct{ t *testing.T }

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestRequireAuthBearerToken(t *testing.T) {
	s := testService(t)

	signed, err := s.signAccessToken(&types.User{
		ID:    "user-1",
		Name:  "Priya Raman",
		Email: "priya@lostlink.test",
		Role:  types.RoleUser,
	}, time.Now())
	require.NoError(t, err)

	var got Identity
	handler := s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.identityFromContext(r.Context())
		require.NoError(t, err)
		got = identity
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/items/feed", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "priya@lostlink.test", got.Email)
	assert.Equal(t, types.RoleUser, got.Role)
}

func TestRequireAuthMissingToken(t *testing.T) {
	s := testService(t)

	handler := s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/items/feed", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthGarbageToken(t *testing.T) {
	s := testService(t)

	handler := s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/items/feed", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	s := testService(t)

	nextRan := false
	admin := s.RequireAuth(s.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextRan = true
	})))

	// A regular user hits a 403.
	userToken, err := s.signAccessToken(&types.User{ID: "user-1", Role: types.RoleUser}, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec := httptest.NewRecorder()

	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, nextRan)

	// An admin passes through.
	adminToken, err := s.signAccessToken(&types.User{ID: "admin-1", Role: types.RoleAdmin}, time.Now())
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()

	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, nextRan)
}

func TestStripTrailingSlash(t *testing.T) {
	s := testService(t)

	handler := s.StripTrailingSlash(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/items/feed/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/api/items/feed", rec.Header().Get("Location"))
}
