package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// CreateFeedback inserts a student's feedback. Returns ErrConflict if they already left some.
func (s *PGStore) CreateFeedback(ctx context.Context, f *model.Feedback) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO quiz_feedback (quiz_id, student_id, feedback)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		f.QuizID, f.StudentID, f.Body,
	).Scan(&f.ID, &f.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// ListFeedbackByQuiz lists feedback left on a quiz, latest first.
func (s *PGStore) ListFeedbackByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.FeedbackRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, f.quiz_id, f.student_id, f.feedback, f.created_at, u.username
		 FROM quiz_feedback f
		 JOIN users u ON u.id = f.student_id
		 WHERE f.quiz_id = $1
		 ORDER BY f.created_at DESC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FeedbackRow
	for rows.Next() {
		var f model.FeedbackRow
		if err := rows.Scan(&f.ID, &f.QuizID, &f.StudentID, &f.Body, &f.CreatedAt, &f.StudentUsername); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
