package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// QuizSource serves the quiz and questions for a date; either the store
// directly or a Redis cache in front of it.
type QuizSource interface {
	QuizOfDay(ctx context.Context, date string) (domain.Quiz, []domain.Question, error)
}

// TopSource serves the ranked leaderboard; either the ledger or its cache.
type TopSource interface {
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// StoreQuizSource is the uncached QuizSource.
type StoreQuizSource struct {
	Store app.Store
}

func (s StoreQuizSource) QuizOfDay(ctx context.Context, date string) (domain.Quiz, []domain.Question, error) {
	quiz, err := s.Store.QuizByDate(ctx, date)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	questions, err := s.Store.QuestionsByQuiz(ctx, quiz.ID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	return quiz, questions, nil
}

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Store      app.Store
	Quizzes    QuizSource
	Top        TopSource
	Scoring    *app.Scoring
	Lifecycle  *app.Lifecycle
	Ledger     *app.Ledger
	Feed       *app.Feed
	Sessions   app.SessionStore
	Users      app.Directory
	SessionTTL time.Duration
	Log        *logger.Logger
}

// NewRouter builds the full route table: public endpoints, the session
// endpoint, and the authenticated quiz/leaderboard API.
func NewRouter(deps Deps) *mux.Router {
	log := deps.Log.With("component", "http")

	quizzes := deps.Quizzes
	if quizzes == nil {
		quizzes = StoreQuizSource{Store: deps.Store}
	}
	var top TopSource = deps.Ledger
	if deps.Top != nil {
		top = deps.Top
	}

	auth := &authMiddleware{sessions: deps.Sessions, users: deps.Users, log: log}
	sessionHandler := &SessionHandler{sessions: deps.Sessions, users: deps.Users, ttl: deps.SessionTTL, log: log}
	quizHandler := &QuizHandler{store: deps.Store, quizzes: quizzes, scoring: deps.Scoring, lifecycle: deps.Lifecycle, log: log}
	leaderboardHandler := &LeaderboardHandler{top: top, ledger: deps.Ledger, log: log}
	wsHandler := NewLeaderboardWSHandler(deps.Feed, top, log)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.HandleFunc("/api/auth/session", sessionHandler.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/leaderboard", leaderboardHandler.Top).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/tiers", leaderboardHandler.Tiers).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/history", leaderboardHandler.History).Methods(http.MethodGet)
	r.HandleFunc("/ws/leaderboard", wsHandler.ServeWS)

	authed := r.PathPrefix("/api/quiz").Subrouter()
	authed.Use(auth.Middleware)
	authed.HandleFunc("/today", quizHandler.Today).Methods(http.MethodGet)
	authed.HandleFunc("/{quizId:[0-9]+}/submit", quizHandler.Submit).Methods(http.MethodPost)
	authed.HandleFunc("/admin/regenerate", quizHandler.Regenerate).Methods(http.MethodPost)

	return r
}
