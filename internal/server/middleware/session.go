// Package middleware provides HTTP middleware for sessions and site access.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/cover-letter/internal/identity"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// sessionKey is the context key for storing the authenticated session.
const sessionKey ContextKey = "session"

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/auth/login"

// RequireSession redirects requests without a valid session to the login page
// and stores the session in the request context otherwise.
func RequireSession(provider identity.Optional, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := provider.Get()
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			token := TokenFromRequest(r, cookieName)
			if token == "" {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			session, err := p.GetSession(r.Context(), token)
			if err != nil || session == nil || session.User == nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// TokenFromRequest returns the access token from the session cookie, or from
// a Bearer Authorization header when there is no cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	// Handle case-insensitive "Bearer" prefix
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*identity.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*identity.Session)
	return session, ok && session != nil
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	session, ok := SessionFromContext(r.Context())
	if !ok || session.User == nil {
		return uuid.Nil, fmt.Errorf("user ID not found in request context")
	}
	return session.User.ID, nil
}
