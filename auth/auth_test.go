package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstego/models"
)

var testSecret = []byte("test-secret-key-for-jwt-signing-at-least-32-bytes-long")

func mint(t *testing.T, c models.Claims) string {
	t.Helper()
	tok, err := CreateToken(&c, testSecret)
	require.NoError(t, err)
	return tok
}

func TestVerifyRoundTrip(t *testing.T) {
	now := time.Now().Unix()
	tok := mint(t, models.Claims{Issuer: "vidstego", Subject: "alice", IssuedAt: now, ExpiresAt: now + 60})

	claims, err := Verify(tok, VerifyConfig{SecretKey: testSecret, ExpectedIssuer: "vidstego"})
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestVerifyFailures(t *testing.T) {
	now := time.Now().Unix()
	cfg := VerifyConfig{SecretKey: testSecret}

	_, err := Verify("", cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Verify("not.a.jwt", cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Verify(mint(t, models.Claims{Subject: "a"}), VerifyConfig{})
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = Verify(mint(t, models.Claims{Subject: "a"}), VerifyConfig{SecretKey: []byte("another-secret-another-secret-32b")})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = Verify(mint(t, models.Claims{Subject: "a", ExpiresAt: now - 3600}), cfg)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = Verify(mint(t, models.Claims{Subject: "a", IssuedAt: now + 3600}), cfg)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)

	_, err = Verify(mint(t, models.Claims{Subject: "a", Issuer: "other"}), VerifyConfig{SecretKey: testSecret, ExpectedIssuer: "vidstego"})
	assert.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestVerifyClockSkew(t *testing.T) {
	tok := mint(t, models.Claims{Subject: "a", ExpiresAt: time.Now().Unix() - 30})
	_, err := Verify(tok, VerifyConfig{SecretKey: testSecret, ClockSkew: time.Minute})
	assert.NoError(t, err)
}

func TestMiddleware(t *testing.T) {
	var seen *models.Claims
	h := Middleware(VerifyConfig{SecretKey: testSecret}, "/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"missing bearer token"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, models.Claims{Subject: "bob"}))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "bob", seen.Subject)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBearer(t *testing.T) {
	tok, ok := bearer("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = bearer("bearer  xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc"} {
		_, ok := bearer(h)
		assert.False(t, ok, h)
	}
}
