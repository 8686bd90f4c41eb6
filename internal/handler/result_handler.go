package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/response"
	"github.com/stemsi/quizwizz-backend/internal/service"
)

// ResultHandler serves grade release, results and dashboards.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		log:           logger.Component(log, "result_handler"),
	}
}

// ReleaseGrades godoc
// POST /api/v1/teacher/quizzes/:quiz_id/release-grades
// Releases grades to students. Repeating the call changes nothing and sends nothing.
func (h *ResultHandler) ReleaseGrades(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}

	quiz, changed, err := h.resultService.ReleaseGrades(c.Request.Context(), id, quizID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	notified := 0
	if changed {
		notified = h.resultService.NotifyGradesReleased(c.Request.Context(), quiz)
	}
	response.Success(c, http.StatusOK, gin.H{
		"quiz_id":         quiz.ID,
		"grades_released": quiz.GradesReleased,
		"changed":         changed,
		"notified":        notified,
	})
}

// QuizResults godoc
// GET /api/v1/teacher/quizzes/:quiz_id/results
// Returns statistics, attempts and feedback of a quiz.
func (h *ResultHandler) QuizResults(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	res, err := h.resultService.QuizResults(c.Request.Context(), id, quizID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// AttemptResult godoc
// GET /api/v1/teacher/attempts/:attempt_id
// GET /api/v1/student/attempts/:attempt_id/result
// Returns an attempt behind the grade visibility gate.
func (h *ResultHandler) AttemptResult(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	res, err := h.resultService.AttemptResult(c.Request.Context(), id, attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// TeacherDashboard godoc
// GET /api/v1/teacher/dashboard
// Summarizes every quiz the caller authored.
func (h *ResultHandler) TeacherDashboard(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	dash, err := h.resultService.TeacherDashboard(c.Request.Context(), id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, dash)
}
