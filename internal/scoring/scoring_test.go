package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcq(points int, correctIdx int, n int) model.Question {
	q := model.Question{ID: uuid.New(), Type: model.QuestionTypeMCQ, Points: points, Text: "pick one"}
	for i := 0; i < n; i++ {
		q.Options = append(q.Options, model.Option{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Text:       string(rune('A' + i)),
			IsCorrect:  i == correctIdx,
			OrderNum:   i,
		})
	}
	return q
}

func descriptive(points int, answer string) model.Question {
	q := model.Question{ID: uuid.New(), Type: model.QuestionTypeDescriptive, Points: points, Text: "capital of France"}
	q.Options = []model.Option{{ID: uuid.New(), QuestionID: q.ID, Text: answer, IsCorrect: true}}
	return q
}

func optionSub(q model.Question, idx int) model.Submission {
	id := q.Options[idx].ID
	return model.Submission{QuestionID: q.ID, OptionID: &id}
}

func textSub(q model.Question, text string) model.Submission {
	return model.Submission{QuestionID: q.ID, Text: &text}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "paris", NormalizeText(" Pa ris\t\n"))
	assert.Equal(t, "newyork", NormalizeText("New York"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestGradeAnswer_MultipleChoice(t *testing.T) {
	q := mcq(2, 1, 3)

	correct := optionSub(q, 1)
	ans := GradeAnswer(&q, &correct)
	assert.True(t, ans.IsCorrect)
	assert.Equal(t, 2, ans.PointsEarned)

	wrong := optionSub(q, 0)
	ans = GradeAnswer(&q, &wrong)
	assert.False(t, ans.IsCorrect)
	assert.Zero(t, ans.PointsEarned)

	unknown := uuid.New()
	ans = GradeAnswer(&q, &model.Submission{QuestionID: q.ID, OptionID: &unknown})
	assert.False(t, ans.IsCorrect)
	assert.Zero(t, ans.PointsEarned)
	assert.Equal(t, &unknown, ans.SelectedOptionID)

	ans = GradeAnswer(&q, nil)
	assert.False(t, ans.IsCorrect)
	assert.Zero(t, ans.PointsEarned)

	ans = GradeAnswer(&q, &model.Submission{QuestionID: q.ID})
	assert.False(t, ans.IsCorrect)
}

func TestGradeAnswer_Descriptive(t *testing.T) {
	q := descriptive(3, "Paris")

	cases := []struct {
		text    string
		correct bool
	}{
		{" paris ", true},
		{"PARIS", true},
		{"P a r i s", true},
		{"Pariss", false},
		{"", false},
	}
	for _, tc := range cases {
		sub := textSub(q, tc.text)
		ans := GradeAnswer(&q, &sub)
		assert.Equal(t, tc.correct, ans.IsCorrect, tc.text)
		if tc.correct {
			assert.Equal(t, 3, ans.PointsEarned)
		} else {
			assert.Zero(t, ans.PointsEarned)
		}
	}

	ans := GradeAnswer(&q, nil)
	assert.False(t, ans.IsCorrect)
}

func TestGradeAnswer_MalformedQuestionScoresZero(t *testing.T) {
	q := mcq(5, 0, 1)
	sub := optionSub(q, 0)
	ans := GradeAnswer(&q, &sub)
	assert.False(t, ans.IsCorrect)
	assert.Zero(t, ans.PointsEarned)
}

func TestScoreAttempt_EndToEnd(t *testing.T) {
	q1 := mcq(2, 0, 3)
	q1.OrderNum = 1
	q2 := mcq(2, 2, 3)
	q2.OrderNum = 2
	q3 := descriptive(3, "Paris")
	q3.OrderNum = 3

	subs := map[uuid.UUID]model.Submission{
		q1.ID: optionSub(q1, 0),
		q2.ID: optionSub(q2, 2),
		q3.ID: textSub(q3, "paris"),
	}
	attemptID := uuid.New()

	// Pass the questions out of order to check grading follows order_num.
	out := ScoreAttempt(attemptID, []model.Question{q3, q1, q2}, subs)
	assert.Equal(t, 7, out.Score)
	assert.Equal(t, 7, out.MaxScore)
	require.Len(t, out.Answers, 3)
	assert.Equal(t, q1.ID, out.Answers[0].QuestionID)
	assert.Equal(t, q2.ID, out.Answers[1].QuestionID)
	assert.Equal(t, q3.ID, out.Answers[2].QuestionID)
	for _, a := range out.Answers {
		assert.Equal(t, attemptID, a.AttemptID)
	}
}

func TestScoreAttempt_UnansweredQuestionsStillGraded(t *testing.T) {
	q1 := mcq(4, 0, 2)
	q2 := descriptive(6, "go")

	out := ScoreAttempt(uuid.New(), []model.Question{q1, q2}, nil)
	assert.Zero(t, out.Score)
	assert.Equal(t, 10, out.MaxScore)
	assert.Equal(t, MaxScore([]model.Question{q1, q2}), out.MaxScore)
	assert.Len(t, out.Answers, 2)
}

func TestPercentage(t *testing.T) {
	assert.InDelta(t, 50.0, Percentage(5, 10), 1e-9)
	assert.Zero(t, Percentage(5, 0))
}

func TestCanonicalAnswer(t *testing.T) {
	q := mcq(1, 1, 3)
	assert.Equal(t, "B", CanonicalAnswer(&q))
	d := descriptive(1, "Paris")
	assert.Equal(t, "Paris", CanonicalAnswer(&d))
}

func completedAttempt(score int) model.Attempt {
	now := time.Now()
	return model.Attempt{ID: uuid.New(), StartedAt: now, CompletedAt: &now, Score: &score}
}

func TestQuizAggregates(t *testing.T) {
	q1 := mcq(5, 0, 2)
	q2 := mcq(5, 1, 2)
	questions := []model.Question{q1, q2}

	a1 := completedAttempt(10)
	a2 := completedAttempt(5)
	open := model.Attempt{ID: uuid.New(), StartedAt: time.Now()}

	answers := []model.Answer{
		{AttemptID: a1.ID, QuestionID: q1.ID, IsCorrect: true},
		{AttemptID: a1.ID, QuestionID: q2.ID, IsCorrect: true},
		{AttemptID: a2.ID, QuestionID: q1.ID, IsCorrect: true},
		{AttemptID: a2.ID, QuestionID: q2.ID, IsCorrect: false},
		// answers of an in-progress attempt never count
		{AttemptID: open.ID, QuestionID: q2.ID, IsCorrect: false},
	}

	stats := QuizAggregates(questions, []model.Attempt{a1, a2, open}, answers)
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 1, stats.InProgressAttempts)
	assert.Equal(t, 10, stats.MaxScore)
	assert.InDelta(t, 7.5, stats.AvgScore, 1e-9)
	assert.Equal(t, 10, stats.HighestScore)
	assert.Equal(t, 5, stats.LowestScore)
	assert.InDelta(t, 75.0, stats.AvgPercentage, 1e-9)

	require.Len(t, stats.Questions, 2)
	assert.InDelta(t, 100.0, stats.Questions[0].SuccessRate, 1e-9)
	assert.InDelta(t, 50.0, stats.Questions[1].SuccessRate, 1e-9)
	assert.Equal(t, 2, stats.Questions[1].Answered)
}

func TestQuizAggregates_Empty(t *testing.T) {
	stats := QuizAggregates(nil, nil, nil)
	assert.Zero(t, stats.TotalAttempts)
	assert.Zero(t, stats.AvgScore)
	assert.Zero(t, stats.HighestScore)
	assert.Zero(t, stats.LowestScore)
	assert.Zero(t, stats.AvgPercentage)

	q := mcq(3, 0, 2)
	stats = QuizAggregates([]model.Question{q}, nil, nil)
	require.Len(t, stats.Questions, 1)
	assert.Zero(t, stats.Questions[0].SuccessRate)
	assert.Equal(t, 3, stats.MaxScore)
}
