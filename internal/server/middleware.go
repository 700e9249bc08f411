package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/impala-radio/impala/internal/identity"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "impala.session"

type contextKey string

const (
	sessionContextKey contextKey = "impala.session"
	tokenContextKey   contextKey = "impala.token"
)

// SessionFromContext returns the authenticated session, or nil for
// anonymous requests.
func SessionFromContext(ctx context.Context) *identity.Session {
	sess, _ := ctx.Value(sessionContextKey).(*identity.Session)
	return sess
}

// tokenFromContext returns the raw session token the caller presented.
func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// SessionMiddleware resolves the caller's session from the session cookie
// or an Authorization bearer header and stashes it in the request context.
// It never rejects: anonymous requests pass through and the policy layer
// decides what they may do.
func SessionMiddleware(sessions *identity.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), tokenContextKey, token)
			if sess, ok := sessions.Get(token); ok {
				ctx = context.WithValue(ctx, sessionContextKey, sess)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken prefers the cookie; the bearer header exists for
// non-browser clients.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}
