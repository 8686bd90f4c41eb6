package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/response"
	"github.com/stemsi/quizwizz-backend/internal/service"
	"github.com/stemsi/quizwizz-backend/internal/validator"
)

// QuizHandler handles quiz authoring for teachers and the public catalog.
type QuizHandler struct {
	quizService   *service.QuizService
	accessService *service.AccessService
	log           zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, accessService *service.AccessService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService:   quizService,
		accessService: accessService,
		log:           logger.Component(log, "quiz_handler"),
	}
}

// Search godoc
// GET /api/v1/quizzes?search=&category=&page=&per_page=
// Lists public quizzes.
func (h *QuizHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "12"))

	quizzes, pagination, err := h.quizService.Search(c.Request.Context(), c.Query("search"), c.Query("category"), page, perPage)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, quizzes, pagination)
}

// Categories godoc
// GET /api/v1/categories
// Lists the supported quiz categories.
func (h *QuizHandler) Categories(c *gin.Context) {
	response.Success(c, http.StatusOK, model.Categories)
}

// Create godoc
// POST /api/v1/teacher/quizzes
// Creates a quiz together with its questions.
func (h *QuizHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), id, &req)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"quiz": quiz,
		"link": h.accessService.QuizLink(quiz.ID),
	})
}

// ListMine godoc
// GET /api/v1/teacher/quizzes
// Lists quizzes authored by the caller.
func (h *QuizHandler) ListMine(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizzes, err := h.quizService.ListMine(c.Request.Context(), id)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}
	response.Success(c, http.StatusOK, quizzes)
}

// Get godoc
// GET /api/v1/teacher/quizzes/:quiz_id
// Returns the author's view of a quiz, correct answers included.
func (h *QuizHandler) Get(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	quiz, err := h.quizService.GetForAuthor(c.Request.Context(), id, quizID)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, quiz)
}

// Update godoc
// PUT /api/v1/teacher/quizzes/:quiz_id
// Edits quiz settings.
func (h *QuizHandler) Update(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), id, quizID, &req)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, quiz)
}

// Delete godoc
// DELETE /api/v1/teacher/quizzes/:quiz_id
// Deletes a quiz and everything attached to it.
func (h *QuizHandler) Delete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	if err := h.quizService.Delete(c.Request.Context(), id, quizID); err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ReplaceQuestions godoc
// PUT /api/v1/teacher/quizzes/:quiz_id/questions
// Replaces the full question set of a quiz without attempts.
func (h *QuizHandler) ReplaceQuestions(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.quizService.ReplaceQuestions(c.Request.Context(), id, quizID, &req)
	if err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// Invite godoc
// POST /api/v1/teacher/quizzes/:quiz_id/invite
// Emails a quiz invitation.
func (h *QuizHandler) Invite(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.InviteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.accessService.Invite(c.Request.Context(), id, quizID, req.Email); err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}
