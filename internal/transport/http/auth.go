package http

import (
	"context"
	"net/http"
	"strings"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

type contextKey string

const userContextKey contextKey = "user"

// authMiddleware resolves the bearer token to a user before the quiz
// handlers run. Requests without a valid session get 401.
type authMiddleware struct {
	sessions app.SessionStore
	users    app.Directory
	log      *logger.Logger
}

func (m *authMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := m.sessions.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		user, err := m.users.UserByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// userFrom returns the authenticated user placed in the context by the
// middleware.
func userFrom(r *http.Request) (domain.User, bool) {
	user, ok := r.Context().Value(userContextKey).(domain.User)
	return user, ok
}
