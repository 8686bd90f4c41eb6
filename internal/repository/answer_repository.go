package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// InsertAnswers writes the graded answers of one attempt in a single batch.
func (s *PGStore) InsertAnswers(ctx context.Context, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range answers {
		batch.Queue(
			`INSERT INTO answers (id, attempt_id, question_id, selected_option_id, text_answer, is_correct, points_earned)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.AttemptID, a.QuestionID, a.SelectedOptionID, a.TextAnswer, a.IsCorrect, a.PointsEarned,
		)
	}
	return s.db.SendBatch(ctx, batch).Close()
}

func collectAnswers(rows pgx.Rows) ([]model.Answer, error) {
	defer rows.Close()
	var out []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SelectedOptionID, &a.TextAnswer, &a.IsCorrect, &a.PointsEarned); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAnswersByAttempt retrieves the graded answers of an attempt in question order.
func (s *PGStore) ListAnswersByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT a.id, a.attempt_id, a.question_id, a.selected_option_id, a.text_answer, a.is_correct, a.points_earned
		 FROM answers a
		 JOIN questions q ON q.id = a.question_id
		 WHERE a.attempt_id = $1
		 ORDER BY q.order_num, q.id`, attemptID)
	if err != nil {
		return nil, err
	}
	return collectAnswers(rows)
}

// ListAnswersByQuiz retrieves every answer of the quiz's completed attempts.
func (s *PGStore) ListAnswersByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Answer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT a.id, a.attempt_id, a.question_id, a.selected_option_id, a.text_answer, a.is_correct, a.points_earned
		 FROM answers a
		 JOIN quiz_attempts t ON t.id = a.attempt_id
		 WHERE t.quiz_id = $1 AND t.completed_at IS NOT NULL`, quizID)
	if err != nil {
		return nil, err
	}
	return collectAnswers(rows)
}
