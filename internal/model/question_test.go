package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionBody(t *testing.T) {
	quizID := uuid.New()

	t.Run("mcq with one correct option", func(t *testing.T) {
		q := QuestionInput{
			Text:   "2+2?",
			Type:   QuestionTypeMCQ,
			Points: 1,
			Options: []OptionInput{
				{Text: "3"},
				{Text: "4", IsCorrect: true},
			},
		}.ToQuestion(quizID)

		body, err := q.Body()
		require.NoError(t, err)
		m, ok := body.(MultipleChoice)
		require.True(t, ok)
		correct, found := m.Correct()
		require.True(t, found)
		assert.Equal(t, "4", correct.Text)
	})

	t.Run("mcq needs two options", func(t *testing.T) {
		q := QuestionInput{Text: "x", Type: QuestionTypeMCQ, Points: 1,
			Options: []OptionInput{{Text: "only", IsCorrect: true}}}.ToQuestion(quizID)
		_, err := q.Body()
		assert.ErrorIs(t, err, ErrInvalidQuestion)
	})

	t.Run("mcq needs exactly one correct option", func(t *testing.T) {
		q := QuestionInput{Text: "x", Type: QuestionTypeMCQ, Points: 1,
			Options: []OptionInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}}.ToQuestion(quizID)
		_, err := q.Body()
		assert.ErrorIs(t, err, ErrInvalidQuestion)

		q = QuestionInput{Text: "x", Type: QuestionTypeMCQ, Points: 1,
			Options: []OptionInput{{Text: "a"}, {Text: "b"}}}.ToQuestion(quizID)
		_, err = q.Body()
		assert.ErrorIs(t, err, ErrInvalidQuestion)
	})

	t.Run("descriptive keeps canonical answer", func(t *testing.T) {
		q := QuestionInput{Text: "capital?", Type: QuestionTypeDescriptive, Points: 3,
			CorrectAnswer: "  Paris "}.ToQuestion(quizID)
		body, err := q.Body()
		require.NoError(t, err)
		assert.Equal(t, Descriptive{CanonicalAnswer: "Paris"}, body)
	})

	t.Run("descriptive needs an answer", func(t *testing.T) {
		q := QuestionInput{Text: "capital?", Type: QuestionTypeDescriptive, Points: 3}.ToQuestion(quizID)
		_, err := q.Body()
		assert.ErrorIs(t, err, ErrInvalidQuestion)
	})
}

func TestQuestionPaperHidesCorrectness(t *testing.T) {
	q := QuestionInput{Text: "2+2?", Type: QuestionTypeMCQ, Points: 1,
		Options: []OptionInput{{Text: "3"}, {Text: "4", IsCorrect: true}}}.ToQuestion(uuid.New())
	p := q.Paper()
	require.Len(t, p.Options, 2)
	assert.Equal(t, q.Options[1].ID, p.Options[1].ID)

	d := QuestionInput{Text: "capital?", Type: QuestionTypeDescriptive, Points: 3,
		CorrectAnswer: "Paris"}.ToQuestion(uuid.New())
	assert.Empty(t, d.Paper().Options)
}
