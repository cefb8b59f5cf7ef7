package auth

import (
	"context"
	"net/http"
	"strings"
)

type userIDKey struct{}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated user id in the request context.
func (issuer *TokenIssuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		userID, err := issuer.VerifyToken(token)
		if err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(userIDKey{}).(uint)
	return userID, ok
}
