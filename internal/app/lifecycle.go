package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// Lifecycle owns the daily quiz: ensuring today's quiz exists, regenerating
// it on demand, and replacing fallback content with real questions.
type Lifecycle struct {
	store     Store
	generator QuestionGenerator
	cache     CacheInvalidator
	log       *logger.Logger
	clock     func() time.Time
}

// NewLifecycle wires the lifecycle manager. cache may be nil when no quiz
// cache is configured.
func NewLifecycle(store Store, generator QuestionGenerator, cache CacheInvalidator, log *logger.Logger) *Lifecycle {
	return &Lifecycle{
		store:     store,
		generator: generator,
		cache:     cache,
		log:       log.With("service", "lifecycle"),
		clock:     time.Now,
	}
}

// WithClock overrides the clock; test hook.
func (l *Lifecycle) WithClock(clock func() time.Time) *Lifecycle {
	l.clock = clock
	return l
}

func (l *Lifecycle) today() string {
	return domain.FormatDate(l.clock())
}

// EnsureToday creates today's quiz when none exists. Generation failures
// degrade to the fallback question bank when useFallback is true; otherwise
// they propagate so operators see the real error. Persistence failures always
// propagate.
func (l *Lifecycle) EnsureToday(ctx context.Context, useFallback bool) error {
	today := l.today()

	if _, err := l.store.QuizByDate(ctx, today); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrQuizNotFound) {
		return err
	}

	questions, err := l.generateQuestions(ctx, today)
	if err != nil {
		if !useFallback {
			return err
		}
		l.log.Warn("quiz generation failed, using fallback questions", "date", today, "error", err.Error())
		questions = FallbackQuestions()
	}

	quiz := &domain.Quiz{
		Date:  today,
		Title: "Daily Quiz - " + today,
	}
	if err := l.store.CreateQuizWithQuestions(ctx, quiz, questions); err != nil {
		if errors.Is(err, domain.ErrQuizExists) {
			// Lost the creation race; someone else's quiz stands.
			l.log.Info("quiz already created by a concurrent writer", "date", today)
			return nil
		}
		return err
	}

	l.log.Info("created quiz", "date", today, "quiz_id", quiz.ID, "questions", len(questions))
	return nil
}

// RegenerateToday deletes today's quiz with all dependent rows and recreates
// it without the fallback safety net. On generation failure the old quiz is
// already gone and no quiz exists for the date; the caller sees the error and
// can retry.
func (l *Lifecycle) RegenerateToday(ctx context.Context) error {
	today := l.today()

	quiz, err := l.store.QuizByDate(ctx, today)
	switch {
	case err == nil:
		l.log.Info("deleting existing quiz before regeneration", "date", today, "quiz_id", quiz.ID)
		if err := l.store.DeleteQuiz(ctx, quiz.ID); err != nil {
			return err
		}
		l.invalidate(ctx, today)
	case errors.Is(err, domain.ErrQuizNotFound):
		// nothing to delete
	default:
		return err
	}

	return l.EnsureToday(ctx, false)
}

// HealDegraded checks whether today's quiz carries fallback placeholder
// questions and, if so, deletes it and retries through the normal generation
// path. Used at startup so a failed overnight generation gets a second
// chance without operator involvement.
func (l *Lifecycle) HealDegraded(ctx context.Context) error {
	today := l.today()

	quiz, err := l.store.QuizByDate(ctx, today)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return l.EnsureToday(ctx, true)
	}
	if err != nil {
		return err
	}

	questions, err := l.store.QuestionsByQuiz(ctx, quiz.ID)
	if err != nil {
		return err
	}

	degraded := false
	for _, q := range questions {
		if strings.HasPrefix(q.Text, FallbackPrefix) {
			degraded = true
			break
		}
	}
	if !degraded {
		l.log.Info("today's quiz already has real questions", "date", today, "quiz_id", quiz.ID)
		return nil
	}

	l.log.Warn("today's quiz has fallback questions, regenerating", "date", today, "quiz_id", quiz.ID)
	if err := l.store.DeleteQuiz(ctx, quiz.ID); err != nil {
		return err
	}
	l.invalidate(ctx, today)
	return l.EnsureToday(ctx, true)
}

func (l *Lifecycle) invalidate(ctx context.Context, date string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Invalidate(ctx, date); err != nil {
		l.log.Warn("quiz cache invalidation failed", "date", date, "error", err.Error())
	}
}

// generatedQuestion is one entry of the quiz.questions array as the model
// returns it; every field is optional and defaulted during building.
type generatedQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index"`
	Points       int      `json:"points"`
}

type generatedDocument struct {
	Quiz struct {
		Questions []generatedQuestion `json:"questions"`
	} `json:"quiz"`
}

func (l *Lifecycle) generateQuestions(ctx context.Context, date string) ([]domain.Question, error) {
	raw, err := l.generator.GenerateQuiz(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	var doc generatedDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse generated quiz: %w", err)
	}
	if len(doc.Quiz.Questions) == 0 {
		return nil, errors.New("generated quiz has no questions")
	}

	questions := make([]domain.Question, 0, len(doc.Quiz.Questions))
	for i, gq := range doc.Quiz.Questions {
		q := domain.Question{
			Text:    gq.Question,
			Options: gq.Options,
			Points:  gq.Points,
		}
		if q.Text == "" {
			q.Text = fmt.Sprintf("Question %d", i+1)
		}
		if q.Options == nil {
			q.Options = []string{}
		}
		if gq.CorrectIndex != nil {
			q.CorrectIndex = *gq.CorrectIndex
		}
		if q.CorrectIndex < 0 || (len(q.Options) > 0 && q.CorrectIndex >= len(q.Options)) {
			q.CorrectIndex = 0
		}
		if q.Points <= 0 {
			q.Points = 10
		}
		questions = append(questions, q)
	}
	return questions, nil
}
