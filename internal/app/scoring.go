package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// MessageSubmitted and MessageAlreadySubmitted are the user-visible outcomes
// of a submission.
const (
	MessageSubmitted        = "Submitted"
	MessageAlreadySubmitted = "Already submitted"
)

// Scoring grades submissions and credits points. One attempt per (quiz, user)
// is the hard invariant; a repeated submission returns the already-submitted
// sentinel without touching points.
type Scoring struct {
	store  Store
	users  Directory
	ledger *Ledger
	feed   *Feed
	log    *logger.Logger
	clock  func() time.Time
}

// NewScoring wires the scoring engine. feed may be nil when no live
// leaderboard is attached.
func NewScoring(store Store, users Directory, ledger *Ledger, feed *Feed, log *logger.Logger) *Scoring {
	return &Scoring{
		store:  store,
		users:  users,
		ledger: ledger,
		feed:   feed,
		log:    log.With("service", "scoring"),
		clock:  time.Now,
	}
}

// Submit grades the user's answers against the quiz's stored questions,
// persists the attempt, and credits the score to the user's running total.
func (s *Scoring) Submit(ctx context.Context, email string, req domain.SubmitRequest) (domain.SubmitResult, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("resolve user %q: %w", email, err)
	}

	quiz, err := s.store.QuizByID(ctx, req.QuizID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	// Fast-path duplicate check; the attempt uniqueness constraint below is
	// what actually closes the race.
	if _, err := s.store.AttemptFor(ctx, quiz.ID, user.ID); err == nil {
		return alreadySubmitted(), nil
	} else if !errors.Is(err, domain.ErrAttemptNotFound) {
		return domain.SubmitResult{}, err
	}

	questions, err := s.store.QuestionsByQuiz(ctx, quiz.ID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	answers := req.Answers
	if answers == nil {
		answers = map[int64]int{}
	}

	score := 0
	for _, q := range questions {
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectIndex {
			score += q.Points
		}
	}

	attempt := &domain.Attempt{
		QuizID:      quiz.ID,
		UserID:      user.ID,
		Answers:     answers,
		Score:       score,
		AttemptedAt: s.clock(),
	}
	total, err := s.store.SubmitAttempt(ctx, attempt)
	if errors.Is(err, domain.ErrAlreadySubmitted) {
		// Lost the submission race; the winner's attempt stands.
		return alreadySubmitted(), nil
	}
	if err != nil {
		return domain.SubmitResult{}, err
	}

	s.log.Info("scored attempt", "quiz_id", quiz.ID, "user_id", user.ID, "score", score, "total_points", total)
	s.publishLeaderboard(ctx)

	return domain.SubmitResult{
		Score:       &score,
		TotalPoints: &total,
		Message:     MessageSubmitted,
	}, nil
}

func (s *Scoring) publishLeaderboard(ctx context.Context) {
	if s.feed == nil || s.ledger == nil {
		return
	}
	entries, err := s.ledger.Top(ctx, LeaderboardSize)
	if err != nil {
		s.log.Warn("leaderboard refresh failed", "error", err.Error())
		return
	}
	s.feed.Publish(entries)
}

func alreadySubmitted() domain.SubmitResult {
	return domain.SubmitResult{Message: MessageAlreadySubmitted}
}
