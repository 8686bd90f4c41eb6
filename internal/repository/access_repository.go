package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// AddSharedAccess grants a user access to a private quiz. Granting twice is a no-op.
func (s *PGStore) AddSharedAccess(ctx context.Context, quizID uuid.UUID, userID int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO shared_quizzes (user_id, quiz_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, quizID)
	return err
}

// HasSharedAccess reports whether a user is on a quiz's allow-list.
func (s *PGStore) HasSharedAccess(ctx context.Context, quizID uuid.UUID, userID int) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shared_quizzes WHERE user_id = $1 AND quiz_id = $2)`,
		userID, quizID).Scan(&ok)
	return ok, err
}

// ListSharedQuizzes lists the quizzes a user has been granted access to.
func (s *PGStore) ListSharedQuizzes(ctx context.Context, userID int) ([]model.Quiz, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes q
		 JOIN shared_quizzes sq ON sq.quiz_id = q.id
		 WHERE sq.user_id = $1
		 ORDER BY sq.shared_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectQuizzes(rows)
}

// ToggleBookmark adds the bookmark if missing and removes it otherwise.
// Returns true when the quiz is bookmarked after the call.
func (s *PGStore) ToggleBookmark(ctx context.Context, quizID uuid.UUID, userID int) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND quiz_id = $2`, userID, quizID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO bookmarks (user_id, quiz_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, quizID)
	return err == nil, err
}

// ListBookmarkedQuizzes lists a user's bookmarked quizzes, latest first.
func (s *PGStore) ListBookmarkedQuizzes(ctx context.Context, userID int) ([]model.Quiz, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes q
		 JOIN bookmarks b ON b.quiz_id = q.id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectQuizzes(rows)
}
