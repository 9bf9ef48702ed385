// Package api implements the resume REST API using chi.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/auth"
)

type claimsKey struct{}

// ClaimsFrom returns the verified token claims stored by AuthMiddleware.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// AuthMiddleware returns middleware that requires a valid
// "Authorization: Bearer <token>" header and stores its claims in the request
// context.
func AuthMiddleware(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, r, "authenticate", apperr.Unauthorized("Missing bearer token."))
				return
			}
			claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, r, "authenticate", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// RequireSameUser rejects requests whose token belongs to a user other than
// the {username} URL parameter. It must run after AuthMiddleware.
func RequireSameUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			writeError(w, r, "authorize", apperr.Unauthorized("Missing bearer token."))
			return
		}
		username := chi.URLParam(r, "username")
		if claims.Username != username {
			slog.Warn("token used for another user",
				slog.String("token_user", claims.Username),
				slog.String("path_user", username))
			writeError(w, r, "authorize", apperr.Forbidden("User %q can not access resources of %q.", claims.Username, username))
			return
		}
		next.ServeHTTP(w, r)
	})
}
