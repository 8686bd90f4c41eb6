package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

const quizColumns = `q.id, q.title, q.description, q.category, q.author_id, q.is_public, q.password,
	q.time_limit_minutes, q.max_attempts, q.start_time, q.end_time, q.grades_released,
	q.created_at, q.updated_at`

func scanQuiz(row pgx.Row, q *model.Quiz) error {
	return row.Scan(
		&q.ID, &q.Title, &q.Description, &q.Category, &q.AuthorID, &q.IsPublic, &q.Password,
		&q.TimeLimitMinutes, &q.MaxAttempts, &q.StartTime, &q.EndTime, &q.GradesReleased,
		&q.CreatedAt, &q.UpdatedAt,
	)
}

func collectQuizzes(rows pgx.Rows) ([]model.Quiz, error) {
	defer rows.Close()
	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := scanQuiz(rows, &q); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// CreateQuiz inserts a new quiz. grades_released always starts false.
func (s *PGStore) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, category, author_id, is_public, password,
		                      time_limit_minutes, max_attempts, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, grades_released, created_at, updated_at`,
		q.Title, q.Description, q.Category, q.AuthorID, q.IsPublic, q.Password,
		q.TimeLimitMinutes, q.MaxAttempts, q.StartTime, q.EndTime,
	).Scan(&q.ID, &q.GradesReleased, &q.CreatedAt, &q.UpdatedAt)
}

// UpdateQuiz modifies quiz settings. It never touches grades_released.
func (s *PGStore) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	err := s.db.QueryRow(ctx,
		`UPDATE quizzes
		 SET title = $1, description = $2, category = $3, is_public = $4, password = $5,
		     time_limit_minutes = $6, max_attempts = $7, start_time = $8, end_time = $9,
		     updated_at = NOW()
		 WHERE id = $10
		 RETURNING grades_released, updated_at`,
		q.Title, q.Description, q.Category, q.IsPublic, q.Password,
		q.TimeLimitMinutes, q.MaxAttempts, q.StartTime, q.EndTime, q.ID,
	).Scan(&q.GradesReleased, &q.UpdatedAt)
	return notFound(err)
}

// DeleteQuiz removes a quiz; questions, attempts and every dependent row cascade.
func (s *PGStore) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetQuiz retrieves a quiz by ID.
func (s *PGStore) GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := scanQuiz(s.db.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes q WHERE q.id = $1`, id), q)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// ListQuizzesByAuthor retrieves every quiz authored by a teacher, newest first.
func (s *PGStore) ListQuizzesByAuthor(ctx context.Context, authorID int) ([]model.Quiz, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes q
		 WHERE q.author_id = $1
		 ORDER BY q.created_at DESC`, authorID)
	if err != nil {
		return nil, err
	}
	return collectQuizzes(rows)
}

// SearchPublicQuizzes lists public quizzes matching an optional title search and category.
func (s *PGStore) SearchPublicQuizzes(ctx context.Context, f model.QuizSearchFilter) ([]model.Quiz, int, error) {
	base := ` FROM quizzes q WHERE q.is_public = TRUE`
	args := []any{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		base += fmt.Sprintf(" AND q.title ILIKE $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		base += fmt.Sprintf(" AND q.category = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + quizColumns + base +
		fmt.Sprintf(" ORDER BY q.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	quizzes, err := collectQuizzes(rows)
	return quizzes, total, err
}

// ReleaseGrades sets grades_released. There is deliberately no statement that clears it.
func (s *PGStore) ReleaseGrades(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE quizzes SET grades_released = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
