package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/mcoot/mudaccounts/internal/api/apierr"
)

// AdminToken creates middleware that admits only requests bearing the
// configured admin token. An empty token disables the guarded routes.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				apierr.WriteError(w, apierr.NewForbiddenError("Admin API is disabled"))
				return
			}

			presented := extractToken(r)
			if presented == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				apierr.WriteError(w, apierr.NewForbiddenError("Invalid admin token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
