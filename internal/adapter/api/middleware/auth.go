package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/pkg/token"
)

// SessionCookie is the name of the browser session cookie.
const SessionCookie = "sunrise_session"

type contextKey string

const sessionContextKey contextKey = "session"

// Authenticator resolves request credentials to a session. Implemented by
// the auth use case.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (domain.Session, error)
	ValidateToken(tokenString string) (*token.Claims, error)
}

// Auth is a middleware factory that returns a new authentication middleware.
// It accepts either the browser session cookie or an Authorization bearer
// token and stores the resolved session in the request context.
func Auth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := resolveSession(r, auth)
			if !ok {
				logger.Warn("unauthenticated request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// RequireAdmin is a middleware factory that rejects non-admin sessions. It
// must run after Auth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok || session.Role != domain.RoleAdmin {
				logger.Warn("forbidden request", "path", r.URL.Path, "user_id", session.UserID)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithSession stores a resolved session in the context.
func ContextWithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFrom returns the session Auth stored in the request context.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(domain.Session)
	return session, ok
}

func resolveSession(r *http.Request, auth Authenticator) (domain.Session, bool) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		session, err := auth.Authenticate(r.Context(), cookie.Value)
		if err == nil {
			return session, true
		}
	}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err == nil {
			return domain.Session{UserID: claims.UserID, Role: claims.Role}, true
		}
	}

	return domain.Session{}, false
}
