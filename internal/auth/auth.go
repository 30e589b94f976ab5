// Package auth validates session tokens on the REST surface and the
// websocket handshake. Issuing tokens (login, 2FA) lives in a separate
// service; this layer only checks that the presented token is valid and
// extracts the user identity from it.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"Massenger/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const userIDKey = "userId"

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims defines our JWT claims structure. The user identity is the standard
// subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// ParseToken validates an HMAC-signed token and returns the user id from the
// subject claim.
func ParseToken(secret string, tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// TokenFromRequest extracts the session token from the Authorization header,
// falling back to the token query parameter for websocket handshakes where
// browsers cannot set headers.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireAuth is a gin middleware that rejects requests without a valid
// session token and stores the authenticated user id on the context.
func RequireAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ParseToken(secret, TokenFromRequest(c.Request))
		if err != nil {
			logger.Warn("rejected unauthenticated request",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorPayload{
				Code:    "unauthorized",
				Message: "missing or invalid token",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
