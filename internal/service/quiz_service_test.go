package service

import (
	"testing"

	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuiz_ValidatesQuestions(t *testing.T) {
	f := newFixture(t)

	_, err := f.quizzes.Create(f.ctx, f.teacher, &model.CreateQuizRequest{
		Title: "Bad", Category: "science",
		Questions: []model.QuestionInput{{
			Text: "Pick", Type: model.QuestionTypeMCQ, Points: 1,
			Options: []model.OptionInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}},
		}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuestion)

	_, err = f.quizzes.Create(f.ctx, f.teacher, &model.CreateQuizRequest{
		Title: "Bad", Category: "science",
		Questions: []model.QuestionInput{{Text: "Explain", Type: model.QuestionTypeDescriptive, Points: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuestion)

	quizzes, err := f.quizzes.ListMine(f.ctx, f.teacher)
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestCreateQuiz_Defaults(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.MaxAttempts = 0 })
	assert.Equal(t, 1, quiz.MaxAttempts)
	assert.True(t, quiz.IsPublic)
	assert.False(t, quiz.GradesReleased)
	assert.Len(t, quiz.Questions, 3)

	_, err := f.quizzes.Create(f.ctx, f.student, &model.CreateQuizRequest{Title: "x", Category: "arts"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestCreateQuiz_InvalidSchedule(t *testing.T) {
	f := newFixture(t)
	_, err := f.quizzes.Create(f.ctx, f.teacher, &model.CreateQuizRequest{
		Title: "x", Category: "arts",
		StartTime: ptr(testNow), EndTime: ptr(testNow),
		Questions: []model.QuestionInput{{Text: "Explain", Type: model.QuestionTypeDescriptive, Points: 1, CorrectAnswer: "a"}},
	})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestReplaceQuestions_LockedOnceAttempted(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)

	req := &model.ReplaceQuestionsRequest{Questions: []model.QuestionInput{
		{Text: "Only question", Type: model.QuestionTypeDescriptive, Points: 5, CorrectAnswer: "yes"},
	}}
	questions, err := f.quizzes.ReplaceQuestions(f.ctx, f.teacher, quiz.ID, req)
	require.NoError(t, err)
	assert.Len(t, questions, 1)

	_, err = f.quizzes.ReplaceQuestions(f.ctx, f.otherTeacher, quiz.ID, req)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, _, err = f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)
	_, err = f.quizzes.ReplaceQuestions(f.ctx, f.teacher, quiz.ID, req)
	assert.ErrorIs(t, err, ErrQuizLocked)
}

func TestGetPaper_HidesAnswers(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)

	paper, err := f.quizzes.GetPaper(f.ctx, f.student, quiz.ID)
	require.NoError(t, err)
	require.Len(t, paper.Questions, 3)
	assert.Len(t, paper.Questions[0].Options, 2)
	assert.Empty(t, paper.Questions[2].Options)

	full, err := f.quizzes.GetForAuthor(f.ctx, f.teacher, quiz.ID)
	require.NoError(t, err)
	assert.True(t, full.Questions[0].Options[0].IsCorrect)

	_, err = f.quizzes.GetForAuthor(f.ctx, f.otherTeacher, quiz.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestDeleteQuiz_Cascades(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	done := f.takeQuiz(t, f.student, quiz, nil)

	assert.ErrorIs(t, f.quizzes.Delete(f.ctx, f.otherTeacher, quiz.ID), ErrAccessDenied)
	require.NoError(t, f.quizzes.Delete(f.ctx, f.teacher, quiz.ID))

	_, err := f.store.GetAttempt(f.ctx, done.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	answers, err := f.store.ListAnswersByAttempt(f.ctx, done.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.createQuiz(t, func(r *model.CreateQuizRequest) { r.Title = "European capitals" })
	f.createQuiz(t, func(r *model.CreateQuizRequest) { r.Title = "Algebra"; r.Category = "mathematics" })
	f.createQuiz(t, func(r *model.CreateQuizRequest) { r.Title = "Secret capitals"; r.IsPublic = ptr(false) })

	quizzes, page, err := f.quizzes.Search(f.ctx, "capital", "", 1, 10)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "European capitals", quizzes[0].Title)
	assert.Equal(t, 1, page.TotalItems)

	quizzes, _, err = f.quizzes.Search(f.ctx, "", "mathematics", 1, 10)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "Algebra", quizzes[0].Title)
}

func TestFeedbackAndBookmarks(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)

	_, err := f.feedback.Submit(f.ctx, f.student, quiz.ID, "too early")
	assert.ErrorIs(t, err, ErrNoCompletedAttempt)

	f.takeQuiz(t, f.student, quiz, nil)
	fb, err := f.feedback.Submit(f.ctx, f.student, quiz.ID, "  great  ")
	require.NoError(t, err)
	assert.Equal(t, "great", fb.Body)

	_, err = f.feedback.Submit(f.ctx, f.student, quiz.ID, "again")
	assert.ErrorIs(t, err, ErrFeedbackExists)

	on, err := f.feedback.ToggleBookmark(f.ctx, f.student, quiz.ID)
	require.NoError(t, err)
	assert.True(t, on)
	list, err := f.feedback.Bookmarks(f.ctx, f.student)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	on, err = f.feedback.ToggleBookmark(f.ctx, f.student, quiz.ID)
	require.NoError(t, err)
	assert.False(t, on)
	list, err = f.feedback.Bookmarks(f.ctx, f.student)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)

	require.NoError(t, f.access.Invite(f.ctx, f.teacher, quiz.ID, "friend@example.com"))
	require.Len(t, f.notes.sent, 1)
	n := f.notes.sent[0]
	assert.Equal(t, model.NotificationQuizInvitation, n.Kind)
	assert.Equal(t, "friend@example.com", n.Recipient)
	assert.Equal(t, "http://quiz.test/quizzes/"+quiz.ID.String(), n.Payload["link"])
	assert.Equal(t, "tess", n.Payload["teacher"])

	assert.ErrorIs(t, f.access.Invite(f.ctx, f.otherTeacher, quiz.ID, "x@example.com"), ErrAccessDenied)
}

func TestAddByLink(t *testing.T) {
	f := newFixture(t)
	open := f.createQuiz(t, nil)
	locked := f.createQuiz(t, func(r *model.CreateQuizRequest) {
		r.IsPublic = ptr(false)
		r.Password = "s3cret"
	})

	require.NoError(t, f.access.AddByLink(f.ctx, f.student, open.ID))
	require.NoError(t, f.access.AddByLink(f.ctx, f.student, open.ID))
	assert.ErrorIs(t, f.access.AddByLink(f.ctx, f.student, locked.ID), ErrPasswordRequired)

	shared, err := f.store.ListSharedQuizzes(f.ctx, f.student.UserID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, open.ID, shared[0].ID)
}
