package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndVerify(t *testing.T) {
	g := NewGate("open sesame", "test-secret", time.Hour)

	token, err := g.Login("open sesame")
	require.NoError(t, err)
	assert.NoError(t, g.Verify(token))

	_, err = g.Login("wrong")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	a := NewGate("pass", "secret-a", time.Hour)
	b := NewGate("pass", "secret-b", time.Hour)

	token, err := a.Login("pass")
	require.NoError(t, err)
	assert.Error(t, b.Verify(token))
	assert.Error(t, a.Verify("not-a-token"))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	g := NewGate("pass", "secret", -time.Minute)

	token, err := g.Login("pass")
	require.NoError(t, err)
	assert.Error(t, g.Verify(token))
}

func TestMiddleware(t *testing.T) {
	g := NewGate("pass", "secret", time.Hour)
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// No header.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Malformed header.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Bad token.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Valid token.
	token, err := g.Login("pass")
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
