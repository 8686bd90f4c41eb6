package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerResult is one graded answer as shown in a result view.
type AnswerResult struct {
	QuestionID       uuid.UUID    `json:"question_id"`
	QuestionText     string       `json:"question_text"`
	Type             QuestionType `json:"question_type"`
	Points           int          `json:"points"`
	SelectedOptionID *uuid.UUID   `json:"selected_option_id,omitempty"`
	TextAnswer       *string      `json:"text_answer,omitempty"`
	CorrectAnswer    string       `json:"correct_answer"`
	IsCorrect        bool         `json:"is_correct"`
	PointsEarned     int          `json:"points_earned"`
}

// AttemptResult is an attempt as returned to its student or the quiz author.
// Score fields are nil whenever the caller may not see grades yet.
type AttemptResult struct {
	AttemptID      uuid.UUID      `json:"attempt_id"`
	QuizID         uuid.UUID      `json:"quiz_id"`
	QuizTitle      string         `json:"quiz_title"`
	StudentID      int            `json:"student_id"`
	Status         AttemptStatus  `json:"status"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	GradesReleased bool           `json:"grades_released"`
	Score          *int           `json:"score,omitempty"`
	MaxScore       *int           `json:"max_score,omitempty"`
	Percentage     *float64       `json:"percentage,omitempty"`
	Answers        []AnswerResult `json:"answers,omitempty"`
}

// QuestionStat is the per-question success rate over completed attempts.
type QuestionStat struct {
	QuestionID  uuid.UUID `json:"question_id"`
	Text        string    `json:"text"`
	Points      int       `json:"points"`
	Answered    int       `json:"answered"`
	Correct     int       `json:"correct"`
	SuccessRate float64   `json:"success_rate"`
}

// QuizStats aggregates a quiz's completed attempts. It is always recomputed, never stored.
type QuizStats struct {
	TotalAttempts      int            `json:"total_attempts"`
	InProgressAttempts int            `json:"in_progress_attempts"`
	MaxScore           int            `json:"max_score"`
	AvgScore           float64        `json:"avg_score"`
	HighestScore       int            `json:"highest_score"`
	LowestScore        int            `json:"lowest_score"`
	AvgPercentage      float64        `json:"avg_percentage"`
	Questions          []QuestionStat `json:"questions"`
}

// QuizResults is the author's results page for a quiz.
type QuizResults struct {
	Quiz     Quiz          `json:"quiz"`
	Stats    QuizStats     `json:"stats"`
	Attempts []AttemptRow  `json:"attempts"`
	Feedback []FeedbackRow `json:"feedback"`
}

// QuizSummary is one line of the teacher dashboard.
type QuizSummary struct {
	QuizID             uuid.UUID `json:"quiz_id"`
	Title              string    `json:"title"`
	Category           string    `json:"category"`
	GradesReleased     bool      `json:"grades_released"`
	QuestionCount      int       `json:"question_count"`
	TotalAttempts      int       `json:"total_attempts"`
	InProgressAttempts int       `json:"in_progress_attempts"`
	AvgPercentage      float64   `json:"avg_percentage"`
}

// TeacherDashboard summarizes every quiz a teacher authored.
type TeacherDashboard struct {
	TotalQuizzes  int           `json:"total_quizzes"`
	TotalAttempts int           `json:"total_attempts"`
	Quizzes       []QuizSummary `json:"quizzes"`
}

// StudentDashboard lists a student's attempts and the private quizzes shared with them.
type StudentDashboard struct {
	InProgress    []AttemptResult `json:"in_progress"`
	Completed     []AttemptResult `json:"completed"`
	SharedQuizzes []Quiz          `json:"shared_quizzes"`
}

// QuizPerformance is a student's record on one quiz. Score fields stay nil until grades are released.
type QuizPerformance struct {
	QuizID         uuid.UUID `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	Category       string    `json:"category"`
	Attempts       int       `json:"attempts"`
	GradesReleased bool      `json:"grades_released"`
	MaxScore       *int      `json:"max_score,omitempty"`
	HighestScore   *int      `json:"highest_score,omitempty"`
	LowestScore    *int      `json:"lowest_score,omitempty"`
	AverageScore   *float64  `json:"average_score,omitempty"`
}
