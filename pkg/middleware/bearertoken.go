package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKeyType string

const bearerTokenKey contextKeyType = "bearer_token"

// BearerToken extracts the bearer token from the Authorization header and
// stores it in the request context. Validation is the identity provider's
// concern; this service only echoes the token back in response envelopes, so
// requests without a token are passed through untouched.
func BearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				ctx := context.WithValue(r.Context(), bearerTokenKey, parts[1])
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// BearerTokenFromContext returns the caller's bearer token, or "" when the
// request carried none.
func BearerTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(bearerTokenKey).(string); ok {
		return token
	}
	return ""
}
