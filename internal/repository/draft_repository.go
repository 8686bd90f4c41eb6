package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// UpsertDrafts persists autosaved answers for an in-progress attempt using one UNNEST statement.
func (s *PGStore) UpsertDrafts(ctx context.Context, attemptID uuid.UUID, subs []model.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	questionIDs := make([]uuid.UUID, 0, len(subs))
	optionIDs := make([]*uuid.UUID, 0, len(subs))
	texts := make([]*string, 0, len(subs))
	for _, sub := range subs {
		questionIDs = append(questionIDs, sub.QuestionID)
		optionIDs = append(optionIDs, sub.OptionID)
		texts = append(texts, sub.Text)
	}

	// Drafts of completed attempts are dropped silently: the join only matches open attempts.
	_, err := s.db.Exec(ctx,
		`INSERT INTO attempt_drafts (attempt_id, question_id, option_id, text_answer)
		 SELECT a.id, t.question_id, t.option_id, t.text_answer
		 FROM UNNEST($2::uuid[], $3::uuid[], $4::text[]) AS t (question_id, option_id, text_answer)
		 JOIN quiz_attempts a ON a.id = $1 AND a.completed_at IS NULL
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET option_id = EXCLUDED.option_id, text_answer = EXCLUDED.text_answer, updated_at = NOW()`,
		attemptID, questionIDs, optionIDs, texts,
	)
	return err
}

// ListDrafts retrieves the persisted drafts of an attempt.
func (s *PGStore) ListDrafts(ctx context.Context, attemptID uuid.UUID) ([]model.Submission, error) {
	rows, err := s.db.Query(ctx,
		`SELECT question_id, option_id, text_answer FROM attempt_drafts WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.QuestionID, &sub.OptionID, &sub.Text); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// DeleteDrafts removes all drafts of an attempt.
func (s *PGStore) DeleteDrafts(ctx context.Context, attemptID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM attempt_drafts WHERE attempt_id = $1`, attemptID)
	return err
}
