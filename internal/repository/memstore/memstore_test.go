package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	quiz := &model.Quiz{Title: "Q", Category: "science", MaxAttempts: 1}
	require.NoError(t, s.CreateQuiz(ctx, quiz))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Catalog) error {
		a := &model.Attempt{QuizID: quiz.ID, StudentID: 1, StartedAt: time.Now()}
		require.NoError(t, tx.CreateAttempt(ctx, a))
		require.NoError(t, tx.ReleaseGrades(ctx, quiz.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetOpenAttempt(ctx, quiz.ID, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	got, err := s.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.False(t, got.GradesReleased)
}

func TestAttempts_OneOpenPerStudent(t *testing.T) {
	ctx := context.Background()
	s := New()
	quiz := &model.Quiz{Title: "Q", Category: "science", MaxAttempts: 3}
	require.NoError(t, s.CreateQuiz(ctx, quiz))

	first := &model.Attempt{QuizID: quiz.ID, StudentID: 1, StartedAt: time.Now()}
	require.NoError(t, s.CreateAttempt(ctx, first))
	assert.ErrorIs(t, s.CreateAttempt(ctx, &model.Attempt{QuizID: quiz.ID, StudentID: 1}), repository.ErrConflict)

	require.NoError(t, s.CompleteAttempt(ctx, first.ID, 1, 2, time.Now()))
	assert.ErrorIs(t, s.CompleteAttempt(ctx, first.ID, 2, 2, time.Now()), repository.ErrConflict)
	require.NoError(t, s.CreateAttempt(ctx, &model.Attempt{QuizID: quiz.ID, StudentID: 1}))

	n, err := s.CountCompletedAttempts(ctx, quiz.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
