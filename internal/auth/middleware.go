package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/library"
	"github.com/joestump/link-library/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// Middleware provides HTTP middleware for session authentication.
type Middleware struct {
	sessions *scs.SessionManager
	users    *store.UserStore
	log      *zap.Logger
}

// NewMiddleware creates a new auth Middleware. A nil logger discards output.
func NewMiddleware(sm *scs.SessionManager, us *store.UserStore, log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{sessions: sm, users: us, log: log.Named("auth")}
}

// OptionalUser sets the *store.User on the request context when the session
// belongs to a known user and passes the request through either way.
func (m *Middleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.sessionUser(r)
		if err != nil {
			m.lookupFailed(w, err)
			return
		}
		if user != nil {
			r = r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 with a JSON body if no valid session exists.
// On success, sets the *store.User on the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.sessionUser(r)
		if err != nil {
			m.lookupFailed(w, err)
			return
		}
		if user == nil {
			writeUnauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionUser returns the session's user, or nil for an anonymous request.
// Store failures other than a missing user are returned as errors.
func (m *Middleware) sessionUser(r *http.Request) (*store.User, error) {
	userID := m.sessions.GetString(r.Context(), SessionUserIDKey)
	if userID == "" {
		return nil, nil
	}
	user, err := m.users.GetByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		// Session references a deleted user.
		_ = m.sessions.Destroy(r.Context())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (m *Middleware) lookupFailed(w http.ResponseWriter, err error) {
	m.log.Error("session user lookup failed", zap.Error(err))
	writeJSONError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
}

// UserFromContext retrieves the authenticated user from the context.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(UserContextKey).(*store.User)
	return u
}

// PrincipalFromContext returns the library principal for the request's user.
// It is the zero (unauthenticated) Principal when no user is attached.
func PrincipalFromContext(ctx context.Context) library.Principal {
	if u := UserFromContext(ctx); u != nil {
		return library.Principal{UserID: u.ID}
	}
	return library.Principal{}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
}

func writeJSONError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
