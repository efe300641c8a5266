package app

import (
	"context"
	"time"

	"odyssey-quiz-service/internal/domain"
)

// Store owns quiz, question, attempt, and points records. Implementations
// must enforce the uniqueness of (date) on quizzes and (quiz, user) on
// attempts and surface violations as domain.ErrQuizExists and
// domain.ErrAlreadySubmitted so concurrent writers can be converted into the
// already-exists paths.
type Store interface {
	// CreateQuizWithQuestions persists a quiz and its questions in one
	// transaction, filling in the generated ids.
	CreateQuizWithQuestions(ctx context.Context, quiz *domain.Quiz, questions []domain.Question) error
	QuizByID(ctx context.Context, id int64) (domain.Quiz, error)
	QuizByDate(ctx context.Context, date string) (domain.Quiz, error)
	QuizzesBefore(ctx context.Context, cutoff string) ([]domain.Quiz, error)
	QuestionsByQuiz(ctx context.Context, quizID int64) ([]domain.Question, error)
	// DeleteQuiz removes the quiz's attempts, then questions, then the quiz
	// row itself in a single transaction.
	DeleteQuiz(ctx context.Context, quizID int64) error

	AttemptFor(ctx context.Context, quizID, userID int64) (domain.Attempt, error)
	// SubmitAttempt inserts the attempt and credits its score to the user's
	// points total in one transaction. Returns the new total.
	SubmitAttempt(ctx context.Context, attempt *domain.Attempt) (int64, error)

	CreditPoints(ctx context.Context, userID int64, delta int) (int64, error)
	TotalPoints(ctx context.Context, userID int64) (int64, error)
	TopPoints(ctx context.Context, limit int) ([]domain.UserPoints, error)

	SnapshotsByDate(ctx context.Context, date string) ([]domain.LeaderboardSnapshot, error)
}

// Directory resolves users; it is owned by the user-management subsystem and
// consumed here read-only.
type Directory interface {
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
}

// SessionStore maps opaque session tokens to user ids.
type SessionStore interface {
	Create(ctx context.Context, token string, userID int64, ttl time.Duration) error
	Resolve(ctx context.Context, token string) (int64, error)
}

// QuestionGenerator produces the raw validated quiz JSON for a date.
type QuestionGenerator interface {
	GenerateQuiz(ctx context.Context, date string) (string, error)
}

// CacheInvalidator drops cached quiz content for a date after destructive
// lifecycle operations.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, date string) error
}
