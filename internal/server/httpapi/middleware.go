package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/daybookapp/daybook/internal/server/auth"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware verifies the bearer token on every request and stores the
// authenticated user id in the request context.
func AuthMiddleware(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				Unauthorized(w, "Invalid authorization header format")
				return
			}

			userID, err := auth.GetUserIDFromToken(parts[1], jwtSecret)
			if err != nil {
				Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the user id placed in the context by AuthMiddleware,
// or "" when the request was not authenticated.
func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
