package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

const attemptColumns = `a.id, a.quiz_id, a.student_id, a.started_at, a.completed_at, a.score, a.max_score`

func scanAttempt(row pgx.Row, a *model.Attempt) error {
	return row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.CompletedAt, &a.Score, &a.MaxScore)
}

// LockAttemptSlot takes a transaction-scoped advisory lock on (quiz, student).
// It serializes concurrent acquire and complete calls for the same pair and must run inside InTx.
func (s *PGStore) LockAttemptSlot(ctx context.Context, quizID uuid.UUID, studentID int) error {
	_, err := s.db.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text), $2)`, quizID, studentID)
	return err
}

// GetOpenAttempt retrieves the incomplete attempt for (quiz, student), if any.
func (s *PGStore) GetOpenAttempt(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := scanAttempt(s.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts a
		 WHERE a.quiz_id = $1 AND a.student_id = $2 AND a.completed_at IS NULL`,
		quizID, studentID), a)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// CountCompletedAttempts counts the student's completed attempts on a quiz.
func (s *PGStore) CountCompletedAttempts(ctx context.Context, quizID uuid.UUID, studentID int) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts
		 WHERE quiz_id = $1 AND student_id = $2 AND completed_at IS NOT NULL`,
		quizID, studentID).Scan(&n)
	return n, err
}

// CreateAttempt inserts a new in-progress attempt.
// Returns ErrConflict if another incomplete attempt already exists for the pair.
func (s *PGStore) CreateAttempt(ctx context.Context, a *model.Attempt) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, student_id, started_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (quiz_id, student_id) WHERE completed_at IS NULL DO NOTHING
		 RETURNING id, started_at`,
		a.QuizID, a.StudentID, a.StartedAt,
	).Scan(&a.ID, &a.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	return err
}

// GetAttempt retrieves an attempt by ID.
func (s *PGStore) GetAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := scanAttempt(s.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts a WHERE a.id = $1`, id), a)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// GetAttemptForUpdate retrieves an attempt and row-locks it until the transaction ends.
func (s *PGStore) GetAttemptForUpdate(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := scanAttempt(s.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts a WHERE a.id = $1 FOR UPDATE`, id), a)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// CompleteAttempt records the final score. It only matches incomplete attempts and
// returns ErrConflict when the attempt was already completed.
func (s *PGStore) CompleteAttempt(ctx context.Context, id uuid.UUID, score, maxScore int, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE quiz_attempts
		 SET score = $1, max_score = $2, completed_at = $3
		 WHERE id = $4 AND completed_at IS NULL`,
		score, maxScore, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

const attemptRowQuery = `SELECT ` + attemptColumns + `, q.title, u.username, u.email
	FROM quiz_attempts a
	JOIN quizzes q ON q.id = a.quiz_id
	JOIN users u ON u.id = a.student_id`

func collectAttemptRows(rows pgx.Rows) ([]model.AttemptRow, error) {
	defer rows.Close()
	var out []model.AttemptRow
	for rows.Next() {
		var r model.AttemptRow
		if err := rows.Scan(
			&r.ID, &r.QuizID, &r.StudentID, &r.StartedAt, &r.CompletedAt, &r.Score, &r.MaxScore,
			&r.QuizTitle, &r.StudentUsername, &r.StudentEmail,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAttemptsByQuiz retrieves every attempt on a quiz with student details, latest first.
func (s *PGStore) ListAttemptsByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.AttemptRow, error) {
	rows, err := s.db.Query(ctx,
		attemptRowQuery+` WHERE a.quiz_id = $1 ORDER BY a.started_at DESC`, quizID)
	if err != nil {
		return nil, err
	}
	return collectAttemptRows(rows)
}

// ListAttemptsByStudent retrieves every attempt of a student, latest first.
func (s *PGStore) ListAttemptsByStudent(ctx context.Context, studentID int) ([]model.AttemptRow, error) {
	rows, err := s.db.Query(ctx,
		attemptRowQuery+` WHERE a.student_id = $1 ORDER BY a.started_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	return collectAttemptRows(rows)
}
