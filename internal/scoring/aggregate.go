package scoring

import (
	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// QuizAggregates derives statistics for a quiz from its attempts and their answers.
//
// TotalAttempts counts completed attempts only; in-progress attempts are reported
// separately. Answers belonging to incomplete attempts are ignored.
func QuizAggregates(questions []model.Question, attempts []model.Attempt, answers []model.Answer) model.QuizStats {
	stats := model.QuizStats{
		MaxScore:  MaxScore(questions),
		Questions: make([]model.QuestionStat, 0, len(questions)),
	}

	completed := make(map[uuid.UUID]struct{}, len(attempts))
	var sum, scored int
	for _, a := range attempts {
		if !a.IsCompleted() {
			stats.InProgressAttempts++
			continue
		}
		stats.TotalAttempts++
		completed[a.ID] = struct{}{}
		if a.Score == nil {
			continue
		}
		s := *a.Score
		if scored == 0 || s > stats.HighestScore {
			stats.HighestScore = s
		}
		if scored == 0 || s < stats.LowestScore {
			stats.LowestScore = s
		}
		sum += s
		scored++
	}
	if scored > 0 {
		stats.AvgScore = float64(sum) / float64(scored)
	}
	if stats.MaxScore > 0 {
		stats.AvgPercentage = stats.AvgScore / float64(stats.MaxScore) * 100
	}

	type tally struct{ answered, correct int }
	perQuestion := make(map[uuid.UUID]*tally, len(questions))
	for _, ans := range answers {
		if _, ok := completed[ans.AttemptID]; !ok {
			continue
		}
		t, ok := perQuestion[ans.QuestionID]
		if !ok {
			t = &tally{}
			perQuestion[ans.QuestionID] = t
		}
		t.answered++
		if ans.IsCorrect {
			t.correct++
		}
	}

	ordered := make([]model.Question, len(questions))
	copy(ordered, questions)
	SortQuestions(ordered)
	for _, q := range ordered {
		qs := model.QuestionStat{QuestionID: q.ID, Text: q.Text, Points: q.Points}
		if t, ok := perQuestion[q.ID]; ok {
			qs.Answered = t.answered
			qs.Correct = t.correct
			if t.answered > 0 {
				qs.SuccessRate = float64(t.correct) / float64(t.answered) * 100
			}
		}
		stats.Questions = append(stats.Questions, qs)
	}
	return stats
}
