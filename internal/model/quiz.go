package model

import (
	"time"

	"github.com/google/uuid"
)

// Categories lists the quiz categories accepted by the authoring endpoints.
var Categories = []string{
	"mathematics",
	"science",
	"history",
	"geography",
	"literature",
	"computer_science",
	"languages",
	"arts",
	"music",
	"sports",
	"general_knowledge",
	"business",
	"technology",
	"health",
	"social_studies",
}

// IsCategory reports whether c is one of the supported quiz categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Quiz represents a quiz authored by a teacher.
type Quiz struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	AuthorID         int        `json:"author_id"`
	IsPublic         bool       `json:"is_public"`
	Password         string     `json:"-"`
	TimeLimitMinutes *int       `json:"time_limit_minutes,omitempty"`
	MaxAttempts      int        `json:"max_attempts"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	GradesReleased   bool       `json:"grades_released"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasPassword reports whether a private quiz can be unlocked with a shared password.
func (q *Quiz) HasPassword() bool { return q.Password != "" }

// IsAuthor reports whether the given user owns the quiz.
func (q *Quiz) IsAuthor(userID int) bool { return q.AuthorID == userID }

// QuizWithQuestions is the author's full view of a quiz, answers included.
type QuizWithQuestions struct {
	Quiz
	HasPassword bool       `json:"has_password"`
	Questions   []Question `json:"questions"`
}

// QuizPaper is the student-facing payload: questions without correctness flags.
type QuizPaper struct {
	QuizID           uuid.UUID       `json:"quiz_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	TimeLimitMinutes *int            `json:"time_limit_minutes,omitempty"`
	MaxAttempts      int             `json:"max_attempts"`
	StartTime        *time.Time      `json:"start_time,omitempty"`
	EndTime          *time.Time      `json:"end_time,omitempty"`
	GradesReleased   bool            `json:"grades_released"`
	Questions        []QuestionPaper `json:"questions"`
}

// QuestionPaper is a question as shown to a student.
type QuestionPaper struct {
	ID       uuid.UUID     `json:"id"`
	Text     string        `json:"text"`
	Type     QuestionType  `json:"question_type"`
	Points   int           `json:"points"`
	OrderNum int           `json:"order_num"`
	Options  []OptionPaper `json:"options,omitempty"`
}

// OptionPaper is an MCQ option as shown to a student.
type OptionPaper struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	OrderNum int       `json:"order_num"`
}

// QuizSearchFilter narrows the public catalog listing.
type QuizSearchFilter struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// CreateQuizRequest is the payload for creating a new quiz with its questions.
type CreateQuizRequest struct {
	Title            string          `json:"title" binding:"required,min=1,max=100"`
	Description      string          `json:"description" binding:"omitempty,max=5000"`
	Category         string          `json:"category" binding:"required,quiz_category"`
	IsPublic         *bool           `json:"is_public" binding:"omitempty"`
	Password         string          `json:"password" binding:"omitempty,max=128"`
	TimeLimitMinutes *int            `json:"time_limit_minutes" binding:"omitempty,min=1,max=1440"`
	MaxAttempts      int             `json:"max_attempts" binding:"omitempty,min=1,max=100"`
	StartTime        *time.Time      `json:"start_time" binding:"omitempty"`
	EndTime          *time.Time      `json:"end_time" binding:"omitempty"`
	Questions        []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// UpdateQuizRequest is the payload for editing quiz settings.
// Grade release only moves through the release endpoint.
type UpdateQuizRequest struct {
	Title            string     `json:"title" binding:"required,min=1,max=100"`
	Description      string     `json:"description" binding:"omitempty,max=5000"`
	Category         string     `json:"category" binding:"required,quiz_category"`
	IsPublic         *bool      `json:"is_public" binding:"omitempty"`
	Password         string     `json:"password" binding:"omitempty,max=128"`
	TimeLimitMinutes *int       `json:"time_limit_minutes" binding:"omitempty,min=1,max=1440"`
	MaxAttempts      int        `json:"max_attempts" binding:"omitempty,min=1,max=100"`
	StartTime        *time.Time `json:"start_time" binding:"omitempty"`
	EndTime          *time.Time `json:"end_time" binding:"omitempty"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing a quiz's questions.
type ReplaceQuestionsRequest struct {
	Questions []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// QuizPasswordRequest unlocks a private quiz.
type QuizPasswordRequest struct {
	Password string `json:"password" binding:"required,max=128"`
}

// InviteRequest asks the platform to email a quiz invitation.
type InviteRequest struct {
	Email string `json:"email" binding:"required,email,max=120"`
}
