package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/response"
	"github.com/stemsi/quizwizz-backend/internal/service"
	"github.com/stemsi/quizwizz-backend/internal/validator"
)

// StudentHandler handles the student side: taking quizzes, dashboards, feedback and bookmarks.
type StudentHandler struct {
	quizService     *service.QuizService
	attemptService  *service.AttemptService
	accessService   *service.AccessService
	feedbackService *service.FeedbackService
	log             zerolog.Logger
	now             func() time.Time
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(
	quizService *service.QuizService,
	attemptService *service.AttemptService,
	accessService *service.AccessService,
	feedbackService *service.FeedbackService,
	log zerolog.Logger,
) *StudentHandler {
	return &StudentHandler{
		quizService:     quizService,
		attemptService:  attemptService,
		accessService:   accessService,
		feedbackService: feedbackService,
		log:             logger.Component(log, "student_handler"),
		now:             time.Now,
	}
}

// ─── Quizzes ────────────────────────────────────────────────────────

// GetQuiz godoc
// GET /api/v1/student/quizzes/:quiz_id
// Returns the quiz paper without correct answers.
func (h *StudentHandler) GetQuiz(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	paper, err := h.quizService.GetPaper(c.Request.Context(), id, quizID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// EnterPassword godoc
// POST /api/v1/student/quizzes/:quiz_id/password
// Unlocks a private quiz with its password.
func (h *StudentHandler) EnterPassword(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.QuizPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.accessService.EnterPassword(c.Request.Context(), id, quizID, req.Password); err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unlocked": true})
}

// JoinByLink godoc
// POST /api/v1/student/quizzes/:quiz_id/join-link
// Adds a quiz reached through a shared link to the caller's list.
func (h *StudentHandler) JoinByLink(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	if err := h.accessService.AddByLink(c.Request.Context(), id, quizID); err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"added": true})
}

// ─── Attempts ───────────────────────────────────────────────────────

// StartAttempt godoc
// POST /api/v1/student/quizzes/:quiz_id/attempts
// Resumes the open attempt or starts a new one. 201 when created, 200 when resumed.
func (h *StudentHandler) StartAttempt(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}

	attempt, created, err := h.attemptService.AcquireAttempt(c.Request.Context(), id, quizID, h.now())
	if err != nil {
		failService(c, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{
		"attempt_id": attempt.ID,
		"quiz_id":    attempt.QuizID,
		"started_at": attempt.StartedAt,
		"status":     attempt.Status(),
		"resumed":    !created,
	})
}

// AttemptState godoc
// GET /api/v1/student/attempts/:attempt_id/state
// Returns the questions, saved drafts and remaining time of an in-progress attempt.
func (h *StudentHandler) AttemptState(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	state, err := h.attemptService.AttemptState(c.Request.Context(), id, attemptID, h.now())
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// SaveAnswer godoc
// PUT /api/v1/student/attempts/:attempt_id/answers
// Autosaves one answer.
func (h *StudentHandler) SaveAnswer(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.attemptService.SaveDraft(c.Request.Context(), id, attemptID, req.Submission); err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": true, "question_id": req.QuestionID})
}

// Submit godoc
// POST /api/v1/student/attempts/:attempt_id/submit
// Grades and completes the attempt. The body is optional; saved drafts fill the gaps.
// The response never includes a score.
func (h *StudentHandler) Submit(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	var req model.SubmitAttemptRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	attempt, err := h.attemptService.CompleteAttempt(c.Request.Context(), id, attemptID, req.Answers, h.now())
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"attempt_id":   attempt.ID,
		"status":       attempt.Status(),
		"completed_at": attempt.CompletedAt,
	})
}

// ─── Dashboards ─────────────────────────────────────────────────────

// Dashboard godoc
// GET /api/v1/student/dashboard
func (h *StudentHandler) Dashboard(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	dash, err := h.attemptService.StudentDashboard(c.Request.Context(), id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, dash)
}

// Performance godoc
// GET /api/v1/student/performance
// Per-quiz records; scores appear only for quizzes with released grades.
func (h *StudentHandler) Performance(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	perf, err := h.attemptService.StudentPerformance(c.Request.Context(), id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	if perf == nil {
		perf = []model.QuizPerformance{}
	}
	response.Success(c, http.StatusOK, perf)
}

// ─── Feedback & bookmarks ───────────────────────────────────────────

// SubmitFeedback godoc
// POST /api/v1/student/quizzes/:quiz_id/feedback
func (h *StudentHandler) SubmitFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.FeedbackRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	fb, err := h.feedbackService.Submit(c.Request.Context(), id, quizID, req.Feedback)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, fb)
}

// ToggleBookmark godoc
// POST /api/v1/student/quizzes/:quiz_id/bookmark
func (h *StudentHandler) ToggleBookmark(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	on, err := h.feedbackService.ToggleBookmark(c.Request.Context(), id, quizID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookmarked": on})
}

// Bookmarks godoc
// GET /api/v1/student/bookmarks
func (h *StudentHandler) Bookmarks(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizzes, err := h.feedbackService.Bookmarks(c.Request.Context(), id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, quizzes)
}
