package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

const defaultSessionTTL = 24 * time.Hour

// SessionHandler mints opaque session tokens for known users. It stands in
// for the site's login flow, which owns real credential checks.
type SessionHandler struct {
	sessions app.SessionStore
	users    app.Directory
	ttl      time.Duration
	log      *logger.Logger
}

type sessionRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}

	user, err := h.users.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "unknown user")
		return
	}
	if err != nil {
		h.log.Error("user lookup failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	ttl := h.ttl
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	token := uuid.NewString()
	if err := h.sessions.Create(r.Context(), token, user.ID, ttl); err != nil {
		h.log.Error("session create failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "session create failed")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
	})
}
