package app

import (
	"context"
	"time"

	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// Sweeper deletes quizzes older than the retention window, dependent rows
// first. The sweep is best-effort: one quiz failing to delete does not stop
// the rest.
type Sweeper struct {
	store         Store
	retentionDays int
	log           *logger.Logger
	clock         func() time.Time
}

func NewSweeper(store Store, retentionDays int, log *logger.Logger) *Sweeper {
	return &Sweeper{
		store:         store,
		retentionDays: retentionDays,
		log:           log.With("service", "sweeper"),
		clock:         time.Now,
	}
}

// WithClock overrides the clock; test hook.
func (s *Sweeper) WithClock(clock func() time.Time) *Sweeper {
	s.clock = clock
	return s
}

// Sweep deletes every quiz dated strictly before today minus the retention
// window and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := domain.FormatDate(s.clock().AddDate(0, 0, -s.retentionDays))

	quizzes, err := s.store.QuizzesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(quizzes) == 0 {
		s.log.Debug("no quizzes past retention", "cutoff", cutoff)
		return 0, nil
	}

	deleted := 0
	for _, quiz := range quizzes {
		if err := s.store.DeleteQuiz(ctx, quiz.ID); err != nil {
			s.log.Error("failed to delete expired quiz", "quiz_id", quiz.ID, "date", quiz.Date, "error", err.Error())
			continue
		}
		deleted++
	}

	s.log.Info("retention sweep finished", "cutoff", cutoff, "deleted", deleted, "candidates", len(quizzes))
	return deleted, nil
}
