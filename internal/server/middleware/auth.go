package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chatgate/chatgate/internal/model"
	"github.com/chatgate/chatgate/internal/session"
)

type contextKeyAuth string

// SessionKey is the context key for the operator session.
const SessionKey contextKeyAuth = "operator_session"

// SessionLookup resolves a session token.
type SessionLookup interface {
	Session(token string) (session.Session, error)
}

// RequireSession admits requests carrying a live operator session in the
// named cookie and attaches the session to the context. Other requests are
// passed to deny.
func RequireSession(lookup SessionLookup, cookieName string, deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil {
				deny(w, r)
				return
			}
			sess, err := lookup.Session(c.Value)
			if err != nil {
				deny(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DenyJSON answers 401 with the standard error envelope. Used for API routes.
func DenyJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    http.StatusUnauthorized,
			Message: "Operator session required. Sign in at /login.",
		},
	})
}

// DenyRedirect sends the browser to the login page. Used for console pages.
func DenyRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GetSession extracts the operator session from the context.
func GetSession(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(session.Session)
	return sess, ok
}
