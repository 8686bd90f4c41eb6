package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrAccessDenied      ErrCode = "ACCESS_DENIED"
	ErrPasswordRequired  ErrCode = "PASSWORD_REQUIRED"
	ErrInvalidPassword   ErrCode = "INVALID_QUIZ_PASSWORD"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrInvalidQuestion ErrCode = "INVALID_QUESTION"
	ErrInvalidSchedule ErrCode = "INVALID_SCHEDULE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz lifecycle ────────────────────────────────────────────────
	ErrQuizNotOpen           ErrCode = "QUIZ_NOT_OPEN"
	ErrQuizClosed            ErrCode = "QUIZ_CLOSED"
	ErrAttemptLimitReached   ErrCode = "ATTEMPT_LIMIT_REACHED"
	ErrGradesAlreadyReleased ErrCode = "GRADES_ALREADY_RELEASED"
	ErrAlreadyCompleted      ErrCode = "ALREADY_COMPLETED"
	ErrQuizLocked            ErrCode = "QUIZ_LOCKED"
	ErrFeedbackExists        ErrCode = "FEEDBACK_EXISTS"
	ErrNoCompletedAttempt    ErrCode = "NO_COMPLETED_ATTEMPT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Username/email or password is incorrect.",
	ErrTokenRequired:      "Authentication token is required.",
	ErrTokenInvalid:       "Authentication token is invalid or expired.",
	ErrEmailTaken:         "Username or email is already registered.",

	ErrAccessDenied:      "You do not have access to this resource.",
	ErrPasswordRequired:  "This quiz is private. Enter its password first.",
	ErrInvalidPassword:   "The quiz password is incorrect.",
	ErrStudentAccessOnly: "This resource is limited to students.",
	ErrTeacherAccessOnly: "This resource is limited to teachers.",

	ErrValidation:      "Validation failed. Please check your input.",
	ErrInvalidID:       "Invalid ID format.",
	ErrInvalidPayload:  "Invalid request payload.",
	ErrInvalidQuestion: "One or more questions are malformed.",
	ErrInvalidSchedule: "The quiz end time must be after its start time.",

	ErrNotFound: "Resource not found.",
	ErrConflict: "Resource already exists.",

	ErrQuizNotOpen:           "This quiz has not started yet.",
	ErrQuizClosed:            "This quiz is closed.",
	ErrAttemptLimitReached:   "You have used all attempts for this quiz.",
	ErrGradesAlreadyReleased: "Grades for this quiz are released; it no longer accepts attempts.",
	ErrAlreadyCompleted:      "This attempt is already submitted.",
	ErrQuizLocked:            "Questions cannot be changed once the quiz has attempts.",
	ErrFeedbackExists:        "You already left feedback on this quiz.",
	ErrNoCompletedAttempt:    "Complete the quiz before leaving feedback.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal: "An internal server error occurred.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
