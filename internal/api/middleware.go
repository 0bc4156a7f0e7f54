package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/quillapp/quill-engine/internal/http/response"
	"github.com/quillapp/quill-engine/internal/scope"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyScope contextKey = "scope"

// requireScope validates the bearer session token and attaches the resolved
// scope. Tokens that resolve to the anonymous scope are rejected: the server
// only ever holds authenticated partitions.
func (s *Server) requireScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Error(w, http.StatusUnauthorized, "missing authorization header", s.logger)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(w, http.StatusUnauthorized, "invalid authorization header format", s.logger)
			return
		}

		sc := s.scopes.ScopeFor(parts[1])
		if sc.IsAnonymous() {
			response.Error(w, http.StatusUnauthorized, "invalid or expired session", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyScope, sc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit rejects requests beyond the per-scope budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil {
			if sc := scopeFrom(r.Context()); !s.limiter.Allow(sc.String()) {
				response.Error(w, http.StatusTooManyRequests, "rate limit exceeded", s.logger)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// scopeFrom extracts the authenticated scope from request context.
func scopeFrom(ctx context.Context) scope.ID {
	if sc, ok := ctx.Value(contextKeyScope).(scope.ID); ok {
		return sc
	}
	return scope.Anonymous
}
