package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"lostlink/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	s := &Service{
		config: &types.Config{
			TokenIssuer: "lostlink",
			TokenTTLMin: 720,
		},
		signingKey: []byte("0123456789abcdef0123456789abcdef"),
	}

	user := &types.User{
		ID:    "user-1",
		Name:  "Priya Raman",
		Email: "priya@lostlink.test",
		Role:  types.RoleAdmin,
	}

	signed, err := s.signAccessToken(user, time.Now())
	require.NoError(t, err)

	token, err := parseAccessToken(s.signingKey, []byte(signed))
	require.NoError(t, err)

	subject, ok := token.Subject()
	require.True(t, ok)
	assert.Equal(t, "user-1", subject)

	var email string
	require.NoError(t, token.Get("email", &email))
	assert.Equal(t, "priya@lostlink.test", email)

	var role string
	require.NoError(t, token.Get("role", &role))
	assert.Equal(t, string(types.RoleAdmin), role)
}

func TestParseAccessTokenRejectsWrongKey(t *testing.T) {
	s := &Service{
		config:     &types.Config{TokenIssuer: "lostlink", TokenTTLMin: 720},
		signingKey: []byte("0123456789abcdef0123456789abcdef"),
	}

	signed, err := s.signAccessToken(&types.User{ID: "user-1"}, time.Now())
	require.NoError(t, err)

	_, err = parseAccessToken([]byte("another-key-another-key-another!"), []byte(signed))
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	s := &Service{
		config:     &types.Config{TokenIssuer: "lostlink", TokenTTLMin: 60},
		signingKey: []byte("0123456789abcdef0123456789abcdef"),
	}

	signed, err := s.signAccessToken(&types.User{ID: "user-1"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = parseAccessToken(s.signingKey, []byte(signed))
	assert.Error(t, err)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"item not found", types.ErrItemNotFound, http.StatusNotFound},
		{"claim not found", types.ErrClaimNotFound, http.StatusNotFound},
		{"notification not found", types.ErrNotificationNotFound, http.StatusNotFound},
		{"conflict", types.ErrConflict, http.StatusConflict},
		{"unauthorized", types.ErrUnauthorized, http.StatusForbidden},
		{"validation", types.ErrValidation, http.StatusBadRequest},
		{"invalid id", types.ErrInvalidID, http.StatusBadRequest},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestStatusForWrappedError(t *testing.T) {
	err := fmt.Errorf("item abc is CLAIMED: %w", types.ErrConflict)
	assert.Equal(t, http.StatusConflict, statusForError(err))
}
