// Package scoring grades submissions against question definitions and derives
// quiz statistics. Everything here is pure: callers load and persist data.
package scoring

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// NormalizeText removes every whitespace rune and lowercases the rest.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// GradeAnswer grades one submission. It never fails: a missing submission, an
// unknown option or a malformed question all grade as incorrect with zero points.
func GradeAnswer(q *model.Question, sub *model.Submission) model.Answer {
	ans := model.Answer{
		ID:         uuid.New(),
		QuestionID: q.ID,
	}
	if sub != nil {
		ans.SelectedOptionID = sub.OptionID
		ans.TextAnswer = sub.Text
	}

	body, err := q.Body()
	if err != nil || sub == nil {
		return ans
	}

	switch b := body.(type) {
	case model.MultipleChoice:
		if sub.OptionID == nil {
			return ans
		}
		for _, o := range b.Options {
			if o.ID == *sub.OptionID {
				ans.IsCorrect = o.IsCorrect
				break
			}
		}
	case model.Descriptive:
		if sub.Text == nil {
			return ans
		}
		ans.IsCorrect = NormalizeText(*sub.Text) == NormalizeText(b.CanonicalAnswer)
	}

	if ans.IsCorrect {
		ans.PointsEarned = q.Points
	}
	return ans
}

// SortQuestions orders questions by order_num, keeping input order for ties.
func SortQuestions(questions []model.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].OrderNum < questions[j].OrderNum
	})
}

// MaxScore is the sum of points over the full question set.
func MaxScore(questions []model.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// Scored is the outcome of grading a whole attempt.
type Scored struct {
	Answers  []model.Answer
	Score    int
	MaxScore int
}

// ScoreAttempt grades every question exactly once, in question order, so a quiz
// with N questions always yields N answers. Submissions for unknown questions are ignored.
func ScoreAttempt(attemptID uuid.UUID, questions []model.Question, subs map[uuid.UUID]model.Submission) Scored {
	ordered := make([]model.Question, len(questions))
	copy(ordered, questions)
	SortQuestions(ordered)

	out := Scored{Answers: make([]model.Answer, 0, len(ordered))}
	for i := range ordered {
		q := &ordered[i]
		var sub *model.Submission
		if s, ok := subs[q.ID]; ok {
			sub = &s
		}
		ans := GradeAnswer(q, sub)
		ans.AttemptID = attemptID
		out.Answers = append(out.Answers, ans)
		out.Score += ans.PointsEarned
		out.MaxScore += q.Points
	}
	return out
}

// Percentage returns score/max*100, or 0 when max is 0.
func Percentage(score, maxScore int) float64 {
	if maxScore == 0 {
		return 0
	}
	return float64(score) / float64(maxScore) * 100
}

// CanonicalAnswer returns the text shown as the correct answer in result views.
func CanonicalAnswer(q *model.Question) string {
	body, err := q.Body()
	if err != nil {
		return ""
	}
	switch b := body.(type) {
	case model.MultipleChoice:
		if o, ok := b.Correct(); ok {
			return o.Text
		}
	case model.Descriptive:
		return b.CanonicalAnswer
	}
	return ""
}
