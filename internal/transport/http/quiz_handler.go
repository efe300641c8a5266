package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// QuizHandler serves the daily quiz, submissions, and the admin regenerate
// operation.
type QuizHandler struct {
	store     app.Store
	quizzes   QuizSource
	scoring   *app.Scoring
	lifecycle *app.Lifecycle
	log       *logger.Logger
	clock     func() time.Time
}

func (h *QuizHandler) now() time.Time {
	if h.clock != nil {
		return h.clock()
	}
	return time.Now()
}

// Today returns today's quiz without correct indexes, plus the caller's
// previous result when they already attempted it. 204 when no quiz exists.
func (h *QuizHandler) Today(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	today := domain.FormatDate(h.now())
	quiz, questions, err := h.quizzes.QuizOfDay(r.Context(), today)
	if errors.Is(err, domain.ErrQuizNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.log.Error("today quiz lookup failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "quiz lookup failed")
		return
	}

	view := domain.QuizView{
		ID:        quiz.ID,
		Title:     quiz.Title,
		Date:      quiz.Date,
		Questions: make([]domain.QuestionView, 0, len(questions)),
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, domain.QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: q.Options,
			Points:  q.Points,
		})
	}

	if attempt, err := h.store.AttemptFor(r.Context(), quiz.ID, user.ID); err == nil {
		score := attempt.Score
		view.Completed = true
		view.PreviousScore = &score
	}

	writeJSON(w, http.StatusOK, view)
}

// Submit grades the caller's answers. The quiz id in the path must match the
// one in the body; duplicates come back as 409 with the sentinel message.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	quizID, err := strconv.ParseInt(mux.Vars(r)["quizId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz id")
		return
	}

	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuizID != quizID {
		writeError(w, http.StatusBadRequest, "quiz id mismatch")
		return
	}

	result, err := h.scoring.Submit(r.Context(), user.Email, req)
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusBadRequest, "user must exist")
		return
	case err != nil:
		h.log.Error("submission failed", "quiz_id", quizID, "user_id", user.ID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	if result.Message == app.MessageAlreadySubmitted {
		writeJSON(w, http.StatusConflict, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Regenerate deletes and rebuilds today's quiz without the fallback safety
// net so admins see real generation errors.
func (h *QuizHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !user.Admin {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	if err := h.lifecycle.RegenerateToday(r.Context()); err != nil {
		h.log.Error("quiz regeneration failed", "user_id", user.ID, "error", err.Error())
		writeError(w, http.StatusBadGateway, "quiz regeneration failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz regenerated successfully"})
}
