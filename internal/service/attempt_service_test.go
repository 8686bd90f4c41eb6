package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAttempt_ResumesOpenAttempt(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)

	first, created, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, first.CompletedAt)
	assert.Nil(t, first.Score)
	assert.Equal(t, testNow, first.StartedAt)

	second, created, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestAcquireAttempt_AttemptLimit(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.MaxAttempts = 2 })

	f.takeQuiz(t, f.student, quiz, nil)
	f.takeQuiz(t, f.student, quiz, nil)

	_, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	assert.ErrorIs(t, err, ErrAttemptLimitReached)

	// Another student is unaffected.
	_, _, err = f.attempts.AcquireAttempt(f.ctx, f.otherStudent, quiz.ID, testNow)
	assert.NoError(t, err)
}

func TestAcquireAttempt_AbandonedAttemptDoesNotCount(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)

	abandoned, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)

	again, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, abandoned.ID, again.ID)

	n, err := f.store.CountCompletedAttempts(f.ctx, quiz.ID, f.student.UserID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAcquireAttempt_Window(t *testing.T) {
	f := newFixture(t)

	future := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.StartTime = ptr(testNow.Add(time.Hour)) })
	_, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, future.ID, testNow)
	assert.ErrorIs(t, err, ErrNotYetOpen)

	past := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.EndTime = ptr(testNow.Add(-time.Hour)) })
	_, _, err = f.attempts.AcquireAttempt(f.ctx, f.student, past.ID, testNow)
	assert.ErrorIs(t, err, ErrClosed)

	open := f.createQuiz(t, func(r *model.CreateQuizRequest) {
		r.StartTime = ptr(testNow.Add(-time.Hour))
		r.EndTime = ptr(testNow.Add(time.Hour))
	})
	_, _, err = f.attempts.AcquireAttempt(f.ctx, f.student, open.ID, testNow)
	assert.NoError(t, err)
}

func TestAcquireAttempt_GradesReleasedBlocksNewAttempts(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.MaxAttempts = 5 })
	_, _, err := f.results.ReleaseGrades(f.ctx, f.teacher, quiz.ID)
	require.NoError(t, err)

	_, _, err = f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	assert.ErrorIs(t, err, ErrGradesAlreadyReleased)
}

func TestAcquireAttempt_PrivateQuizAccess(t *testing.T) {
	f := newFixture(t)

	closed := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.IsPublic = ptr(false) })
	_, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, closed.ID, testNow)
	assert.ErrorIs(t, err, ErrAccessDenied)

	locked := f.createQuiz(t, func(r *model.CreateQuizRequest) {
		r.IsPublic = ptr(false)
		r.Password = "s3cret"
	})
	_, _, err = f.attempts.AcquireAttempt(f.ctx, f.student, locked.ID, testNow)
	assert.ErrorIs(t, err, ErrPasswordRequired)
	assert.ErrorIs(t, err, ErrAccessDenied)

	assert.ErrorIs(t, f.access.EnterPassword(f.ctx, f.student, locked.ID, "wrong"), ErrInvalidPassword)
	require.NoError(t, f.access.EnterPassword(f.ctx, f.student, locked.ID, "s3cret"))
	require.NoError(t, f.access.EnterPassword(f.ctx, f.student, locked.ID, "s3cret"))

	_, _, err = f.attempts.AcquireAttempt(f.ctx, f.student, locked.ID, testNow)
	assert.NoError(t, err)

	shared, err := f.store.ListSharedQuizzes(f.ctx, f.student.UserID)
	require.NoError(t, err)
	assert.Len(t, shared, 1)
}

func TestAcquireAttempt_TeachersCannotTake(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	_, _, err := f.attempts.AcquireAttempt(f.ctx, f.teacher, quiz.ID, testNow)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestAcquireAttempt_UnknownQuiz(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, uuid.New(), testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteAttempt_ScoresWholeQuiz(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	subs := perfectAnswers(quiz)

	done := f.takeQuiz(t, f.student, quiz, subs)
	require.NotNil(t, done.Score)
	assert.Equal(t, 7, *done.Score)
	assert.Equal(t, 7, *done.MaxScore)
	require.NotNil(t, done.CompletedAt)

	answers, err := f.store.ListAnswersByAttempt(f.ctx, done.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 3)

	assert.Equal(t, []model.NotificationKind{model.NotificationSubmissionReceived}, f.notes.kinds())
	assert.Equal(t, "sam@example.com", f.notes.sent[0].Recipient)
}

func TestCompleteAttempt_UnansweredQuestionsScoreZero(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)

	bogus := uuid.New()
	done := f.takeQuiz(t, f.student, quiz, []model.Submission{
		{QuestionID: quiz.Questions[0].ID, OptionID: &bogus},
	})
	assert.Equal(t, 0, *done.Score)
	assert.Equal(t, 7, *done.MaxScore)

	answers, err := f.store.ListAnswersByAttempt(f.ctx, done.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 3)
}

func TestCompleteAttempt_UsesDrafts(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	subs := perfectAnswers(quiz)

	a, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)

	// Autosave a wrong answer then the right one; the latest draft wins.
	wrong := quiz.Questions[0].Options[1].ID
	require.NoError(t, f.attempts.SaveDraft(f.ctx, f.student, a.ID, model.Submission{QuestionID: quiz.Questions[0].ID, OptionID: &wrong}))
	require.NoError(t, f.attempts.SaveDraft(f.ctx, f.student, a.ID, subs[0]))
	require.NoError(t, f.attempts.SaveDraft(f.ctx, f.student, a.ID, subs[1]))
	assert.Len(t, f.drafts.Queued, 3)

	state, err := f.attempts.AttemptState(f.ctx, f.student, a.ID, testNow)
	require.NoError(t, err)
	assert.Len(t, state.Drafts, 2)
	assert.Len(t, state.Questions, 3)

	done, err := f.attempts.CompleteAttempt(f.ctx, f.student, a.ID, subs[2:], testNow)
	require.NoError(t, err)
	assert.Equal(t, 7, *done.Score)

	cached, err := f.drafts.Load(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestSaveDraft_Rejections(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	a, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)

	err = f.attempts.SaveDraft(f.ctx, f.student, a.ID, model.Submission{QuestionID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.attempts.SaveDraft(f.ctx, f.otherStudent, a.ID, perfectAnswers(quiz)[0])
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.attempts.CompleteAttempt(f.ctx, f.student, a.ID, nil, testNow)
	require.NoError(t, err)
	err = f.attempts.SaveDraft(f.ctx, f.student, a.ID, perfectAnswers(quiz)[0])
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCompleteAttempt_IsOneWay(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	first := f.takeQuiz(t, f.student, quiz, perfectAnswers(quiz))

	_, err := f.attempts.CompleteAttempt(f.ctx, f.student, first.ID, nil, testNow.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	stored, err := f.store.GetAttempt(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, *stored.Score)
	assert.Equal(t, *first.CompletedAt, *stored.CompletedAt)

	answers, err := f.store.ListAnswersByAttempt(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 3)
}

func TestCompleteAttempt_RejectedAfterQuizCloses(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.EndTime = ptr(testNow.Add(10 * time.Minute)) })
	a, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)

	_, err = f.attempts.CompleteAttempt(f.ctx, f.student, a.ID, perfectAnswers(quiz), testNow.Add(48*time.Hour))
	assert.ErrorIs(t, err, ErrClosed)

	stored, err := f.store.GetAttempt(f.ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted())
	assert.Nil(t, stored.Score)

	// Right up to the end time the submission is still accepted.
	done, err := f.attempts.CompleteAttempt(f.ctx, f.student, a.ID, perfectAnswers(quiz), testNow.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 7, *done.Score)
}

func TestCompleteAttempt_RejectedAfterGradeRelease(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	a, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)

	_, _, err = f.results.ReleaseGrades(f.ctx, f.teacher, quiz.ID)
	require.NoError(t, err)

	_, err = f.attempts.CompleteAttempt(f.ctx, f.student, a.ID, perfectAnswers(quiz), testNow.Add(time.Minute))
	assert.ErrorIs(t, err, ErrGradesAlreadyReleased)

	res, err := f.results.AttemptResult(f.ctx, f.student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusInProgress, res.Status)
	assert.Nil(t, res.Score)
	assert.Empty(t, f.notes.kinds())
}

func TestCompleteAttempt_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, nil)
	a, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)

	_, err = f.attempts.CompleteAttempt(f.ctx, f.otherStudent, a.ID, nil, testNow)
	assert.ErrorIs(t, err, ErrAccessDenied)

	stored, err := f.store.GetAttempt(f.ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted())
}

func TestAttemptState_RemainingTime(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.TimeLimitMinutes = ptr(10) })
	a, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, quiz.ID, testNow)
	require.NoError(t, err)

	state, err := f.attempts.AttemptState(f.ctx, f.student, a.ID, testNow.Add(4*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, state.RemainingSeconds)
	assert.InDelta(t, 360.0, *state.RemainingSeconds, 1e-6)

	state, err = f.attempts.AttemptState(f.ctx, f.student, a.ID, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, *state.RemainingSeconds)

	for _, q := range state.Questions {
		if q.Type == model.QuestionTypeDescriptive {
			assert.Empty(t, q.Options)
		}
	}
}

func TestStudentPerformance_HidesScoresUntilRelease(t *testing.T) {
	f := newFixture(t)
	quiz := f.createQuiz(t, func(r *model.CreateQuizRequest) { r.MaxAttempts = 3 })
	subs := perfectAnswers(quiz)

	f.takeQuiz(t, f.student, quiz, subs)
	f.takeQuiz(t, f.student, quiz, subs[:1])

	perf, err := f.attempts.StudentPerformance(f.ctx, f.student)
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Equal(t, 2, perf[0].Attempts)
	assert.Nil(t, perf[0].HighestScore)
	assert.Nil(t, perf[0].AverageScore)

	_, _, err = f.results.ReleaseGrades(f.ctx, f.teacher, quiz.ID)
	require.NoError(t, err)

	perf, err = f.attempts.StudentPerformance(f.ctx, f.student)
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Equal(t, 7, *perf[0].HighestScore)
	assert.Equal(t, 2, *perf[0].LowestScore)
	assert.InDelta(t, 4.5, *perf[0].AverageScore, 1e-9)
}

func TestStudentDashboard(t *testing.T) {
	f := newFixture(t)
	done := f.createQuiz(t, nil)
	pending := f.createQuiz(t, nil)

	f.takeQuiz(t, f.student, done, perfectAnswers(done))
	_, _, err := f.attempts.AcquireAttempt(f.ctx, f.student, pending.ID, testNow)
	require.NoError(t, err)

	dash, err := f.attempts.StudentDashboard(f.ctx, f.student)
	require.NoError(t, err)
	require.Len(t, dash.Completed, 1)
	require.Len(t, dash.InProgress, 1)
	assert.Nil(t, dash.Completed[0].Score)
	assert.Equal(t, model.AttemptStatusInProgress, dash.InProgress[0].Status)

	_, err = f.attempts.StudentDashboard(f.ctx, f.teacher)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
