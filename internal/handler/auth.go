package handler

import (
	"context"
	"net/http"
	"strings"

	"kazino-api/internal/model"
	"kazino-api/internal/service"
)

type contextKey string

const userContextKey contextKey = "user"

// TokenAuthenticator resolves a bearer token to an account.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth resolves the Authorization bearer token and stores the
// account in the request context. Requests without a valid token get a
// 401.
func RequireAuth(auth TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom returns the authenticated account stored by RequireAuth.
func userFrom(r *http.Request) *model.User {
	user, _ := r.Context().Value(userContextKey).(*model.User)
	return user
}

// bearerToken extracts the token from the Authorization header,
// accepting a bare token for convenience.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return header
}

var _ TokenAuthenticator = (*service.AccountService)(nil)
