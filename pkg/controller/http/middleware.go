package http

import (
	"net/http"
	"strings"

	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
)

// authMiddleware resolves the request identity once and attaches it to the
// request context. With a no-auth user configured every request runs as that
// user; otherwise the bearer token is resolved against the registry.
func authMiddleware(registry *auth.Registry, noAuthUser *auth.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if noAuthUser != nil {
				ctx := auth.ContextWithUser(r.Context(), noAuthUser)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			user, ok := registry.FindByToken(token)
			if !ok {
				http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header, falling back
// to the token query parameter for websocket clients that cannot set headers
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
