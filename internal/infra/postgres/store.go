package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"odyssey-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// Store is the Postgres-backed implementation of app.Store. Uniqueness of
// quiz dates and attempts is enforced by database constraints; conflicting
// writers get the matching domain sentinel back.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateQuizWithQuestions(ctx context.Context, quiz *domain.Quiz, questions []domain.Question) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO quiz (quiz_date, title) VALUES ($1::date, $2) RETURNING id, created_at`,
		quiz.Date, quiz.Title,
	).Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrQuizExists
		}
		return fmt.Errorf("insert quiz: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		q.QuizID = quiz.ID
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO quiz_question (quiz_id, question_text, options, correct_index, points)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			q.QuizID, q.Text, options, q.CorrectIndex, q.Points,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) QuizByID(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.scanQuiz(s.pool.QueryRow(ctx,
		`SELECT id, quiz_date, title, created_at FROM quiz WHERE id = $1`, id))
}

func (s *Store) QuizByDate(ctx context.Context, date string) (domain.Quiz, error) {
	return s.scanQuiz(s.pool.QueryRow(ctx,
		`SELECT id, quiz_date, title, created_at FROM quiz WHERE quiz_date = $1::date`, date))
}

func (s *Store) scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var quiz domain.Quiz
	var date time.Time
	err := row.Scan(&quiz.ID, &date, &quiz.Title, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.Date = domain.FormatDate(date)
	return quiz, nil
}

func (s *Store) QuizzesBefore(ctx context.Context, cutoff string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_date, title, created_at FROM quiz WHERE quiz_date < $1::date ORDER BY quiz_date`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		var date time.Time
		if err := rows.Scan(&quiz.ID, &date, &quiz.Title, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quiz.Date = domain.FormatDate(date)
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func (s *Store) QuestionsByQuiz(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, question_text, options, correct_index, points
		 FROM quiz_question WHERE quiz_id = $1 ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &options, &q.CorrectIndex, &q.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			q.Options = []string{}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// DeleteQuiz removes attempts, then questions, then the quiz itself. The
// explicit order mirrors the foreign-key ownership even though the schema
// also cascades.
func (s *Store) DeleteQuiz(ctx context.Context, quizID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM quiz_attempt WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM quiz_question WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM quiz WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) AttemptFor(ctx context.Context, quizID, userID int64) (domain.Attempt, error) {
	var attempt domain.Attempt
	var answers []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_id, answers, score, attempted_at
		 FROM quiz_attempt WHERE quiz_id = $1 AND user_id = $2`, quizID, userID,
	).Scan(&attempt.ID, &attempt.QuizID, &attempt.UserID, &answers, &attempt.Score, &attempt.AttemptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	if err := json.Unmarshal(answers, &attempt.Answers); err != nil {
		attempt.Answers = map[int64]int{}
	}
	return attempt, nil
}

// SubmitAttempt inserts the attempt and credits its score in one
// transaction. ON CONFLICT DO NOTHING on the (quiz_id, user_id) key turns the
// losing side of a concurrent duplicate into domain.ErrAlreadySubmitted, and
// the points upsert increments atomically so no credit is ever lost.
func (s *Store) SubmitAttempt(ctx context.Context, attempt *domain.Attempt) (int64, error) {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO quiz_attempt (quiz_id, user_id, answers, score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (quiz_id, user_id) DO NOTHING
		 RETURNING id, attempted_at`,
		attempt.QuizID, attempt.UserID, answers, attempt.Score,
	).Scan(&attempt.ID, &attempt.AttemptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrAlreadySubmitted
	}
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}

	total, err := creditTx(ctx, tx, attempt.UserID, attempt.Score)
	if err != nil {
		return 0, err
	}
	return total, tx.Commit(ctx)
}

func (s *Store) CreditPoints(ctx context.Context, userID int64, delta int) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	total, err := creditTx(ctx, tx, userID, delta)
	if err != nil {
		return 0, err
	}
	return total, tx.Commit(ctx)
}

func creditTx(ctx context.Context, tx pgx.Tx, userID int64, delta int) (int64, error) {
	var total int64
	err := tx.QueryRow(ctx,
		`INSERT INTO user_points (user_id, total_points, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_points = user_points.total_points + EXCLUDED.total_points, updated_at = now()
		 RETURNING total_points`,
		userID, delta,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("credit points: %w", err)
	}
	return total, nil
}

func (s *Store) TotalPoints(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT total_points FROM user_points WHERE user_id = $1`, userID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load points: %w", err)
	}
	return total, nil
}

func (s *Store) TopPoints(ctx context.Context, limit int) ([]domain.UserPoints, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, total_points, updated_at FROM user_points
		 ORDER BY total_points DESC, user_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	var out []domain.UserPoints
	for rows.Next() {
		var up domain.UserPoints
		if err := rows.Scan(&up.UserID, &up.TotalPoints, &up.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan points: %w", err)
		}
		out = append(out, up)
	}
	return out, rows.Err()
}

func (s *Store) SnapshotsByDate(ctx context.Context, date string) ([]domain.LeaderboardSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, snapshot_date, user_id, player_rank, tier
		 FROM leaderboard_snapshot WHERE snapshot_date = $1::date ORDER BY player_rank`, date)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardSnapshot
	for rows.Next() {
		var snap domain.LeaderboardSnapshot
		var snapDate time.Time
		if err := rows.Scan(&snap.ID, &snapDate, &snap.UserID, &snap.Rank, &snap.Tier); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.SnapshotDate = domain.FormatDate(snapDate)
		out = append(out, snap)
	}
	return out, rows.Err()
}
