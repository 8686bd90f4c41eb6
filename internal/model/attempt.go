package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the externally visible state of an attempt.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Attempt represents one student's try at a quiz.
// Score and MaxScore stay nil until the attempt is completed.
type Attempt struct {
	ID          uuid.UUID  `json:"id"`
	QuizID      uuid.UUID  `json:"quiz_id"`
	StudentID   int        `json:"student_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       *int       `json:"score,omitempty"`
	MaxScore    *int       `json:"max_score,omitempty"`
}

// IsCompleted reports whether the attempt has been submitted.
func (a *Attempt) IsCompleted() bool { return a.CompletedAt != nil }

// Status derives the attempt status from completed_at.
func (a *Attempt) Status() AttemptStatus {
	if a.IsCompleted() {
		return AttemptStatusCompleted
	}
	return AttemptStatusInProgress
}

// AttemptRow is an attempt joined with quiz and student display fields.
type AttemptRow struct {
	Attempt
	QuizTitle       string `json:"quiz_title"`
	StudentUsername string `json:"student_username"`
	StudentEmail    string `json:"student_email"`
}

// Answer is the graded record for one question of a completed attempt.
type Answer struct {
	ID               uuid.UUID  `json:"id"`
	AttemptID        uuid.UUID  `json:"attempt_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	TextAnswer       *string    `json:"text_answer,omitempty"`
	IsCorrect        bool       `json:"is_correct"`
	PointsEarned     int        `json:"points_earned"`
}

// Submission is a student's raw answer to one question.
// OptionID is used for mcq questions and Text for descriptive ones.
type Submission struct {
	QuestionID uuid.UUID  `json:"question_id" binding:"required"`
	OptionID   *uuid.UUID `json:"option_id,omitempty"`
	Text       *string    `json:"text,omitempty" binding:"omitempty,max=5000"`
}

// SaveAnswerRequest autosaves one answer of an in-progress attempt.
type SaveAnswerRequest struct {
	Submission
}

// SubmitAttemptRequest finalizes an attempt. Answers omitted here fall back to autosaved drafts.
type SubmitAttemptRequest struct {
	Answers []Submission `json:"answers" binding:"omitempty,max=500,dive"`
}

// AttemptState is what a student needs to render or resume an in-progress attempt.
type AttemptState struct {
	AttemptID        uuid.UUID                `json:"attempt_id"`
	QuizID           uuid.UUID                `json:"quiz_id"`
	StartedAt        time.Time                `json:"started_at"`
	Questions        []QuestionPaper          `json:"questions"`
	Drafts           map[uuid.UUID]Submission `json:"drafts"`
	RemainingSeconds *float64                 `json:"remaining_seconds,omitempty"`
}

// AttemptDraftJob is pushed onto the draft persistence queue after an autosave.
type AttemptDraftJob struct {
	AttemptID  uuid.UUID  `json:"attempt_id"`
	Submission Submission `json:"submission"`
}
