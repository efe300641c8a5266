package domain

import "time"

// DateLayout is the calendar-date format used for quiz dates throughout the
// service. Dates in this form compare correctly as plain strings.
const DateLayout = "2006-01-02"

// FormatDate renders t as a quiz date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Quiz is the set of questions for one calendar date. At most one quiz
// exists per date.
type Quiz struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is a single MCQ belonging to exactly one quiz.
type Question struct {
	ID           int64    `json:"id"`
	QuizID       int64    `json:"quizId"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Points       int      `json:"points"`
}

// Attempt is one user's single graded submission for one quiz. At most one
// attempt exists per (quiz, user) pair; attempts are never updated.
type Attempt struct {
	ID          int64         `json:"id"`
	QuizID      int64         `json:"quizId"`
	UserID      int64         `json:"userId"`
	Answers     map[int64]int `json:"answers"`
	Score       int           `json:"score"`
	AttemptedAt time.Time     `json:"attemptedAt"`
}

// UserPoints is a user's running total across all quizzes ever attempted.
// It only ever increases.
type UserPoints struct {
	UserID      int64     `json:"userId"`
	TotalPoints int64     `json:"totalPoints"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LeaderboardSnapshot is a point-in-time leaderboard row for historical
// queries.
type LeaderboardSnapshot struct {
	ID           int64  `json:"id"`
	SnapshotDate string `json:"snapshotDate"`
	UserID       int64  `json:"userId"`
	Rank         int    `json:"rank"`
	Tier         string `json:"tier"`
}

// User is the slice of the user directory this service needs.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// LeaderboardEntry is one ranked row of the live leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	TotalPoints int64  `json:"totalPoints"`
}

// Tier describes a leaderboard tier and how many ranks it holds.
type Tier struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// SubmitRequest is a user's answer sheet for one quiz: question id mapped to
// the selected option index.
type SubmitRequest struct {
	QuizID  int64         `json:"quizId"`
	Answers map[int64]int `json:"answers"`
}

// SubmitResult is the outcome of a submission. Score and TotalPoints are nil
// on the duplicate-submission path.
type SubmitResult struct {
	Score       *int   `json:"score"`
	TotalPoints *int64 `json:"totalPoints"`
	Message     string `json:"message"`
}

// QuestionView is a question as exposed to quiz takers: the correct index is
// withheld.
type QuestionView struct {
	ID      int64    `json:"id"`
	Text    string   `json:"questionText"`
	Options []string `json:"options"`
	Points  int      `json:"points"`
}

// QuizView is the payload for the daily-quiz endpoint.
type QuizView struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Date          string         `json:"date"`
	Questions     []QuestionView `json:"questions"`
	Completed     bool           `json:"completed"`
	PreviousScore *int           `json:"previousScore,omitempty"`
}
