package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifier_Token(t *testing.T) {
	v := NewVerifier("s3cr3t")
	require.False(t, v.DevMode())

	good := sign(t, "s3cr3t", jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	r := httptest.NewRequest("GET", "/ws?token="+good, nil)
	id, err := v.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	r = httptest.NewRequest("POST", "/api/tts", nil)
	r.Header.Set("Authorization", "Bearer "+good)
	id, err = v.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("s3cr3t")

	_, err := v.FromRequest(httptest.NewRequest("GET", "/ws", nil))
	assert.ErrorIs(t, err, ErrMissingToken)

	wrongKey := sign(t, "other", jwt.MapClaims{"sub": "u1"})
	_, err = v.Verify(wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := sign(t, "s3cr3t", jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := sign(t, "s3cr3t", jwt.MapClaims{"name": "x"})
	_, err = v.Verify(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// dev-mode parameter is ignored once a secret is set
	_, err = v.FromRequest(httptest.NewRequest("GET", "/ws?user_id=u1", nil))
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifier_DevMode(t *testing.T) {
	v := NewVerifier("")
	require.True(t, v.DevMode())

	id, err := v.FromRequest(httptest.NewRequest("GET", "/ws?user_id=dev-1", nil))
	require.NoError(t, err)
	assert.Equal(t, "dev-1", id)

	r := httptest.NewRequest("GET", "/api/files/download-url", nil)
	r.Header.Set("X-User-ID", "dev-2")
	id, err = v.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "dev-2", id)

	_, err = v.FromRequest(httptest.NewRequest("GET", "/ws", nil))
	assert.ErrorIs(t, err, ErrMissingToken)
}
