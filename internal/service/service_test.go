package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository/memstore"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingDispatcher) kinds() []model.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.NotificationKind, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	drafts   *memstore.DraftCache
	notes    *recordingDispatcher
	attempts *AttemptService
	quizzes  *QuizService
	results  *ResultService
	access   *AccessService
	feedback *FeedbackService

	teacher      model.Identity
	otherTeacher model.Identity
	student      model.Identity
	otherStudent model.Identity
}

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	f := &fixture{
		ctx:    context.Background(),
		store:  memstore.New(),
		drafts: memstore.NewDraftCache(),
		notes:  &recordingDispatcher{},
	}
	f.attempts = NewAttemptService(f.store, f.drafts, f.notes, log)
	f.quizzes = NewQuizService(f.store, log)
	f.results = NewResultService(f.store, f.notes, log)
	f.access = NewAccessService(f.store, f.notes, "http://quiz.test", log)
	f.feedback = NewFeedbackService(f.store)

	f.teacher = f.user(t, "tess", model.RoleTeacher)
	f.otherTeacher = f.user(t, "tom", model.RoleTeacher)
	f.student = f.user(t, "sam", model.RoleStudent)
	f.otherStudent = f.user(t, "sue", model.RoleStudent)
	return f
}

func (f *fixture) user(t *testing.T, name string, role model.Role) model.Identity {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return model.Identity{UserID: u.ID, Role: role}
}

// createQuiz builds a quiz with two 2-point mcq questions and one 3-point
// descriptive question whose canonical answer is "Paris".
func (f *fixture) createQuiz(t *testing.T, mutate func(*model.CreateQuizRequest)) *model.QuizWithQuestions {
	t.Helper()
	req := &model.CreateQuizRequest{
		Title:       "Capitals",
		Category:    "geography",
		MaxAttempts: 1,
		Questions: []model.QuestionInput{
			{Text: "Capital of Italy?", Type: model.QuestionTypeMCQ, Points: 2, OrderNum: 1,
				Options: []model.OptionInput{{Text: "Rome", IsCorrect: true}, {Text: "Milan"}}},
			{Text: "Capital of Spain?", Type: model.QuestionTypeMCQ, Points: 2, OrderNum: 2,
				Options: []model.OptionInput{{Text: "Madrid", IsCorrect: true}, {Text: "Seville"}}},
			{Text: "Capital of France?", Type: model.QuestionTypeDescriptive, Points: 3, OrderNum: 3,
				CorrectAnswer: "Paris"},
		},
	}
	if mutate != nil {
		mutate(req)
	}
	quiz, err := f.quizzes.Create(f.ctx, f.teacher, req)
	require.NoError(t, err)
	return quiz
}

// perfectAnswers answers every question of the default quiz correctly.
func perfectAnswers(quiz *model.QuizWithQuestions) []model.Submission {
	paris := " paris "
	rome := quiz.Questions[0].Options[0].ID
	madrid := quiz.Questions[1].Options[0].ID
	return []model.Submission{
		{QuestionID: quiz.Questions[0].ID, OptionID: &rome},
		{QuestionID: quiz.Questions[1].ID, OptionID: &madrid},
		{QuestionID: quiz.Questions[2].ID, Text: &paris},
	}
}

// takeQuiz acquires and completes one attempt.
func (f *fixture) takeQuiz(t *testing.T, who model.Identity, quiz *model.QuizWithQuestions, subs []model.Submission) *model.Attempt {
	t.Helper()
	a, _, err := f.attempts.AcquireAttempt(f.ctx, who, quiz.ID, testNow)
	require.NoError(t, err)
	done, err := f.attempts.CompleteAttempt(f.ctx, who, a.ID, subs, testNow.Add(time.Minute))
	require.NoError(t, err)
	return done
}

func ptr[T any](v T) *T { return &v }
