package middleware

import (
	"context"
	"net/http"

	"github.com/listkeep/listkeep/internal/auth"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "listkeep_session"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// UsernameKey is the context key for storing the authenticated username.
	UsernameKey contextKey = "username"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetUsername extracts the username from the context.
// Returns empty string if not found.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// RequireAuth returns a middleware that resolves the session cookie into an
// authenticated identity and adds it to the request context. Requests with
// no cookie, or with a token that fails validation, are denied with 403
// before the handler runs: protected operations fail closed.
func RequireAuth(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				denyUnauthenticated(w, auth.ErrMissingSession)
				return
			}

			identity, err := sessions.Validate(r.Context(), cookie.Value)
			if err != nil {
				denyUnauthenticated(w, auth.ErrInvalidSession)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, identity.UserID)
			ctx = context.WithValue(ctx, UsernameKey, identity.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func denyUnauthenticated(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"` + err.Error() + `"}`))
}
