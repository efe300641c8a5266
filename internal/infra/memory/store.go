package memory

import (
	"context"
	"sync"
	"time"

	"odyssey-quiz-service/internal/domain"
)

type attemptKey struct {
	quizID int64
	userID int64
}

// Store is an in-memory implementation of app.Store. It enforces the same
// uniqueness rules as the Postgres store (one quiz per date, one attempt per
// quiz and user) under a single mutex, which also makes the attempt-plus-
// credit write atomic.
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	quizzes     map[int64]domain.Quiz
	quizByDate  map[string]int64
	questions   map[int64][]domain.Question
	attempts    map[attemptKey]domain.Attempt
	points      map[int64]domain.UserPoints
	snapshots   []domain.LeaderboardSnapshot
	clock       func() time.Time
}

func NewStore() *Store {
	return &Store{
		quizzes:    make(map[int64]domain.Quiz),
		quizByDate: make(map[string]int64),
		questions:  make(map[int64][]domain.Question),
		attempts:   make(map[attemptKey]domain.Attempt),
		points:     make(map[int64]domain.UserPoints),
		clock:      time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateQuizWithQuestions(_ context.Context, quiz *domain.Quiz, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizByDate[quiz.Date]; ok {
		return domain.ErrQuizExists
	}

	quiz.ID = s.id()
	quiz.CreatedAt = s.clock()
	s.quizzes[quiz.ID] = *quiz
	s.quizByDate[quiz.Date] = quiz.ID

	stored := make([]domain.Question, 0, len(questions))
	for i := range questions {
		q := questions[i]
		q.ID = s.id()
		q.QuizID = quiz.ID
		stored = append(stored, q)
		questions[i] = q
	}
	s.questions[quiz.ID] = stored
	return nil
}

func (s *Store) QuizByID(_ context.Context, id int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) QuizByDate(_ context.Context, date string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.quizByDate[date]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.quizzes[id], nil
}

func (s *Store) QuizzesBefore(_ context.Context, cutoff string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.Date < cutoff {
			out = append(out, quiz)
		}
	}
	return out, nil
}

func (s *Store) QuestionsByQuiz(_ context.Context, quizID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := s.questions[quizID]
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out, nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}

	for key := range s.attempts {
		if key.quizID == quizID {
			delete(s.attempts, key)
		}
	}
	delete(s.questions, quizID)
	delete(s.quizByDate, quiz.Date)
	delete(s.quizzes, quizID)
	return nil
}

func (s *Store) AttemptFor(_ context.Context, quizID, userID int64) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey{quizID: quizID, userID: userID}]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *Store) SubmitAttempt(_ context.Context, attempt *domain.Attempt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptKey{quizID: attempt.QuizID, userID: attempt.UserID}
	if _, ok := s.attempts[key]; ok {
		return 0, domain.ErrAlreadySubmitted
	}

	attempt.ID = s.id()
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = s.clock()
	}
	s.attempts[key] = *attempt

	return s.creditLocked(attempt.UserID, attempt.Score), nil
}

func (s *Store) CreditPoints(_ context.Context, userID int64, delta int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creditLocked(userID, delta), nil
}

func (s *Store) creditLocked(userID int64, delta int) int64 {
	up, ok := s.points[userID]
	if !ok {
		up = domain.UserPoints{UserID: userID}
	}
	up.TotalPoints += int64(delta)
	up.UpdatedAt = s.clock()
	s.points[userID] = up
	return up.TotalPoints
}

func (s *Store) TotalPoints(_ context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points[userID].TotalPoints, nil
}

func (s *Store) TopPoints(_ context.Context, limit int) ([]domain.UserPoints, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserPoints, 0, len(s.points))
	for _, up := range s.points {
		out = append(out, up)
	}
	// insertion sort keeps order deterministic: points desc, then user id asc
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			if out[j].TotalPoints > out[j-1].TotalPoints ||
				(out[j].TotalPoints == out[j-1].TotalPoints && out[j].UserID < out[j-1].UserID) {
				out[j], out[j-1] = out[j-1], out[j]
			} else {
				break
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SnapshotsByDate(_ context.Context, date string) ([]domain.LeaderboardSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LeaderboardSnapshot
	for _, snap := range s.snapshots {
		if snap.SnapshotDate == date {
			out = append(out, snap)
		}
	}
	return out, nil
}

// SeedSnapshots loads historical snapshot rows; used by tests and demos.
func (s *Store) SeedSnapshots(snapshots []domain.LeaderboardSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshots...)
}
