package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validToken(t *testing.T, subject string) string {
	return signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

func TestParseTokenRoundTrip(t *testing.T) {
	userID, err := ParseToken(testSecret, validToken(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestParseTokenRejections(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "empty token",
			token:   "",
			wantErr: ErrMissingToken,
		},
		{
			name:    "garbage token",
			token:   "not.a.jwt",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong secret",
			token:   signToken(t, "other-secret", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing subject",
			token:   signToken(t, testSecret, Claims{}),
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired token",
			token: signToken(t, testSecret, Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "alice",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}),
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseToken(testSecret, tc.token)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestTokenFromRequestHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", TokenFromRequest(r))
}

func TestTokenFromRequestQueryFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/socket?token=abc123", nil)
	assert.Equal(t, "abc123", TokenFromRequest(r))
}

func TestTokenFromRequestHeaderWins(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/socket?token=query", nil)
	r.Header.Set("Authorization", "Bearer header")
	assert.Equal(t, "header", TokenFromRequest(r))
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequireAuth(testSecret, zap.NewNop()))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})

	t.Run("valid token passes and sets identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		r.Header.Set("Authorization", "Bearer "+validToken(t, "alice"))
		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userId":"alice"}`, w.Body.String())
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		r.Header.Set("Authorization", "Bearer "+validToken(t, "alice")+"x")
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
