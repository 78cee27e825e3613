package logger

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	log, err := Init("debug")
	require.NoError(t, err)
	assert.Same(t, log, zap.L())

	_, err = Init("loud")
	assert.Error(t, err)
}

func TestSafeHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/upload", nil)
	r.Header.Set("Authorization", "Bearer abc")
	r.Header.Set("X-Request-Id", "42")

	out := SafeHeaders(r)
	assert.Contains(t, out, "Authorization=<redacted>")
	assert.Contains(t, out, "X-Request-Id=42")
	assert.NotContains(t, out, "abc")
}

func TestRedactQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=secret&user_id=u1", nil)
	out := RedactQuery(r)
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "user_id=u1")
}
