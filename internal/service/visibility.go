package service

import (
	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/scoring"
)

// canSeeGrades decides whether the caller may see scores of the attempt.
// The quiz author always can. The owning student can once grades are released.
// Anyone else gets ErrAccessDenied.
func canSeeGrades(id model.Identity, quiz *model.Quiz, attempt *model.Attempt) (bool, error) {
	switch {
	case id.IsTeacher() && quiz.IsAuthor(id.UserID):
		return true, nil
	case id.IsStudent() && attempt.StudentID == id.UserID:
		return quiz.GradesReleased, nil
	default:
		return false, ErrAccessDenied
	}
}

// GateResult builds the result view of an attempt for the caller. Score, max score,
// percentage and per-question correctness are left out unless the caller may see grades.
func GateResult(id model.Identity, quiz *model.Quiz, attempt *model.Attempt, questions []model.Question, answers []model.Answer) (*model.AttemptResult, error) {
	visible, err := canSeeGrades(id, quiz, attempt)
	if err != nil {
		return nil, err
	}

	res := &model.AttemptResult{
		AttemptID:      attempt.ID,
		QuizID:         quiz.ID,
		QuizTitle:      quiz.Title,
		StudentID:      attempt.StudentID,
		Status:         attempt.Status(),
		StartedAt:      attempt.StartedAt,
		CompletedAt:    attempt.CompletedAt,
		GradesReleased: quiz.GradesReleased,
	}
	if !visible || !attempt.IsCompleted() {
		return res, nil
	}

	res.Score = attempt.Score
	res.MaxScore = attempt.MaxScore
	if attempt.Score != nil && attempt.MaxScore != nil {
		pct := scoring.Percentage(*attempt.Score, *attempt.MaxScore)
		res.Percentage = &pct
	}

	byQuestion := make(map[uuid.UUID]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	ordered := make([]model.Question, len(questions))
	copy(ordered, questions)
	scoring.SortQuestions(ordered)

	res.Answers = make([]model.AnswerResult, 0, len(ordered))
	for i := range ordered {
		q := &ordered[i]
		ar := model.AnswerResult{
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			Type:          q.Type,
			Points:        q.Points,
			CorrectAnswer: scoring.CanonicalAnswer(q),
		}
		if a, ok := byQuestion[q.ID]; ok {
			ar.SelectedOptionID = a.SelectedOptionID
			ar.TextAnswer = a.TextAnswer
			ar.IsCorrect = a.IsCorrect
			ar.PointsEarned = a.PointsEarned
		}
		res.Answers = append(res.Answers, ar)
	}
	return res, nil
}
