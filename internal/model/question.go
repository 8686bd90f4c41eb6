package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidQuestion is returned when a question violates its type's option rules.
var ErrInvalidQuestion = errors.New("invalid question")

type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeDescriptive QuestionType = "descriptive"
)

// Question represents a single quiz question with its ordered options.
type Question struct {
	ID       uuid.UUID    `json:"id"`
	QuizID   uuid.UUID    `json:"quiz_id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"question_type"`
	Points   int          `json:"points"`
	OrderNum int          `json:"order_num"`
	Options  []Option     `json:"options"`
}

// Option is a multiple-choice option, or the canonical answer of a descriptive question.
type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"is_correct"`
	OrderNum   int       `json:"order_num"`
}

// QuestionBody is the graded shape of a question: MultipleChoice or Descriptive.
type QuestionBody interface {
	questionBody()
}

// MultipleChoice holds the options of an mcq question; exactly one is correct.
type MultipleChoice struct {
	Options []Option
}

// Descriptive holds the canonical answer a free-text submission is compared against.
type Descriptive struct {
	CanonicalAnswer string
}

func (MultipleChoice) questionBody() {}
func (Descriptive) questionBody()    {}

// Correct returns the option marked correct.
func (m MultipleChoice) Correct() (Option, bool) {
	for _, o := range m.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// Body converts the stored question into its typed variant, checking the option rules.
func (q *Question) Body() (QuestionBody, error) {
	switch q.Type {
	case QuestionTypeMCQ:
		if len(q.Options) < 2 {
			return nil, errors.Join(ErrInvalidQuestion, errors.New("mcq needs at least 2 options"))
		}
		correct := 0
		for _, o := range q.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return nil, errors.Join(ErrInvalidQuestion, errors.New("mcq needs exactly 1 correct option"))
		}
		return MultipleChoice{Options: q.Options}, nil
	case QuestionTypeDescriptive:
		if len(q.Options) != 1 || strings.TrimSpace(q.Options[0].Text) == "" {
			return nil, errors.Join(ErrInvalidQuestion, errors.New("descriptive needs exactly 1 non-empty answer"))
		}
		return Descriptive{CanonicalAnswer: q.Options[0].Text}, nil
	default:
		return nil, errors.Join(ErrInvalidQuestion, errors.New("unknown question type "+string(q.Type)))
	}
}

// Paper strips correctness data for display to a student.
func (q *Question) Paper() QuestionPaper {
	p := QuestionPaper{
		ID:       q.ID,
		Text:     q.Text,
		Type:     q.Type,
		Points:   q.Points,
		OrderNum: q.OrderNum,
	}
	if q.Type == QuestionTypeMCQ {
		p.Options = make([]OptionPaper, 0, len(q.Options))
		for _, o := range q.Options {
			p.Options = append(p.Options, OptionPaper{ID: o.ID, Text: o.Text, OrderNum: o.OrderNum})
		}
	}
	return p
}

// QuestionInput is the authoring payload for a question.
// Descriptive questions carry their canonical answer in CorrectAnswer.
type QuestionInput struct {
	Text          string        `json:"text" binding:"required,min=1,max=2000"`
	Type          QuestionType  `json:"question_type" binding:"required,oneof=mcq descriptive"`
	Points        int           `json:"points" binding:"required,min=1,max=1000"`
	OrderNum      int           `json:"order_num" binding:"min=0"`
	Options       []OptionInput `json:"options" binding:"omitempty,max=20,dive"`
	CorrectAnswer string        `json:"correct_answer" binding:"omitempty,max=2000"`
}

// OptionInput is the authoring payload for an mcq option.
type OptionInput struct {
	Text      string `json:"text" binding:"required,min=1,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}

// ToQuestion builds a question (and its options) from the authoring payload.
// The result still has to pass Body() before it is stored.
func (in QuestionInput) ToQuestion(quizID uuid.UUID) Question {
	q := Question{
		ID:       uuid.New(),
		QuizID:   quizID,
		Text:     strings.TrimSpace(in.Text),
		Type:     in.Type,
		Points:   in.Points,
		OrderNum: in.OrderNum,
	}
	switch in.Type {
	case QuestionTypeDescriptive:
		q.Options = []Option{{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Text:       strings.TrimSpace(in.CorrectAnswer),
			IsCorrect:  true,
		}}
	default:
		for i, o := range in.Options {
			q.Options = append(q.Options, Option{
				ID:         uuid.New(),
				QuestionID: q.ID,
				Text:       strings.TrimSpace(o.Text),
				IsCorrect:  o.IsCorrect,
				OrderNum:   i,
			})
		}
	}
	return q
}
