package model

import "github.com/google/uuid"

// NotificationKind selects the email template used for delivery.
type NotificationKind string

const (
	NotificationSubmissionReceived NotificationKind = "submission_received"
	NotificationGradesReleased     NotificationKind = "grades_released"
	NotificationQuizInvitation     NotificationKind = "quiz_invitation"
)

// Notification is one queued outbound message.
type Notification struct {
	Kind      NotificationKind  `json:"kind"`
	Recipient string            `json:"recipient"`
	Name      string            `json:"name,omitempty"`
	QuizID    uuid.UUID         `json:"quiz_id"`
	QuizTitle string            `json:"quiz_title"`
	AttemptID *uuid.UUID        `json:"attempt_id,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	// Tries counts failed delivery attempts; the worker dead-letters after MaxNotificationTries.
	Tries int `json:"tries"`
}

const MaxNotificationTries = 3
