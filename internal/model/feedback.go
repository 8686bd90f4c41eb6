package model

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is a student's comment on a quiz they have completed.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	StudentID int       `json:"student_id"`
	Body      string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackRow joins the author username for teacher listings.
type FeedbackRow struct {
	Feedback
	StudentUsername string `json:"student_username"`
}

// FeedbackRequest is the payload for submitting feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required,min=1,max=2000"`
}

// Bookmark marks a quiz a student wants to come back to.
type Bookmark struct {
	UserID    int       `json:"user_id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	CreatedAt time.Time `json:"created_at"`
}
