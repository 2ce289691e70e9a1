package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"mapkit/utils/errors"
)

// KeyVerifier validates a plaintext API key.
type KeyVerifier interface {
	Verify(ctx context.Context, plaintext string) bool
}

// APIKeyMiddleware protects SDK-facing endpoints: the key travels in the
// X-API-Key header, matching what the SDK search client sends.
func APIKeyMiddleware(keys KeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				WriteError(w, errors.ErrMissingAPIKey)
				return
			}
			if !keys.Verify(r.Context(), key) {
				WriteError(w, errors.ErrInvalidAPIKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// JWTMiddleware protects the admin key-provisioning routes.
func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.NewAPIError("INVALID_TOKEN", "Unexpected signing method", http.StatusUnauthorized)
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				WriteError(w, errors.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
