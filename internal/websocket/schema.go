package websocket

import (
	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/response"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is every client message. Fields unused by an action are ignored.
type RequestPayload struct {
	Action     Action             `json:"action"`
	QuestionID uuid.UUID          `json:"question_id"`
	OptionID   *uuid.UUID         `json:"option_id,omitempty"`
	Text       *string            `json:"text,omitempty"`
	Answers    []model.Submission `json:"answers,omitempty"`
}

// Submission returns the autosave fields as a submission.
func (p *RequestPayload) Submission() model.Submission {
	return model.Submission{QuestionID: p.QuestionID, OptionID: p.OptionID, Text: p.Text}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventCompleted Event = "completed"
	EventPong      Event = "pong"
)

type SavedResponse struct {
	Event      Event     `json:"event"`
	QuestionID uuid.UUID `json:"question_id"`
}

// CompletedResponse never carries a score; results go through the gated HTTP endpoint.
type CompletedResponse struct {
	Event     Event               `json:"event"`
	AttemptID uuid.UUID           `json:"attempt_id"`
	Status    model.AttemptStatus `json:"status"`
}

type ErrorResponse struct {
	Event   Event            `json:"event"`
	Code    response.ErrCode `json:"code"`
	Message string           `json:"message"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
