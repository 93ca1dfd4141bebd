package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, expires time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": expires.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	valid := signToken(t, testSecret, time.Now().Add(time.Hour))
	assert.NoError(t, ValidateToken(valid, testSecret))

	expired := signToken(t, testSecret, time.Now().Add(-time.Hour))
	assert.Error(t, ValidateToken(expired, testSecret))

	wrongKey := signToken(t, "other-secret", time.Now().Add(time.Hour))
	assert.Error(t, ValidateToken(wrongKey, testSecret))

	assert.Error(t, ValidateToken("", testSecret))
	assert.Error(t, ValidateToken("not-a-token", testSecret))
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	run := func(authorization string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reset", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	token := signToken(t, testSecret, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusNoContent, run("Bearer "+token))
	assert.Equal(t, http.StatusUnauthorized, run(""))
	assert.Equal(t, http.StatusUnauthorized, run(token))
	assert.Equal(t, http.StatusUnauthorized, run("Bearer bogus"))
}
