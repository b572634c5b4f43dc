package httpapi

import (
	"context"
	"log"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "userId"

// ExtractUserMiddleware resolves the owner of the timer session from the
// forwarded-auth headers a fronting proxy sets.
func ExtractUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Traefik BasicAuth sets this header
		userID := r.Header.Get("X-Auth-User")

		// Also check common alternatives
		if userID == "" {
			userID = r.Header.Get("X-Forwarded-User")
		}
		if userID == "" {
			userID = r.Header.Get("Remote-User")
		}

		// Single-user deployments run without a proxy at all.
		if userID == "" {
			userID = "default-user"
			log.Println("Warning: no auth header, using default-user")
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the session owner resolved by ExtractUserMiddleware.
func UserID(r *http.Request) string {
	userID, ok := r.Context().Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
