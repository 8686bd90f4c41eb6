package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/middleware"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/response"
	"github.com/stemsi/quizwizz-backend/internal/service"
)

type errMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// Order matters: ErrPasswordRequired wraps ErrAccessDenied.
var serviceErrors = []errMapping{
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrPasswordRequired, http.StatusForbidden, response.ErrPasswordRequired},
	{service.ErrAccessDenied, http.StatusForbidden, response.ErrAccessDenied},
	{service.ErrNotYetOpen, http.StatusForbidden, response.ErrQuizNotOpen},
	{service.ErrClosed, http.StatusForbidden, response.ErrQuizClosed},
	{service.ErrAttemptLimitReached, http.StatusForbidden, response.ErrAttemptLimitReached},
	{service.ErrGradesAlreadyReleased, http.StatusForbidden, response.ErrGradesAlreadyReleased},
	{service.ErrAlreadyCompleted, http.StatusConflict, response.ErrAlreadyCompleted},
	{service.ErrInvalidQuestion, http.StatusUnprocessableEntity, response.ErrInvalidQuestion},
	{service.ErrInvalidSchedule, http.StatusUnprocessableEntity, response.ErrInvalidSchedule},
	{service.ErrQuizLocked, http.StatusConflict, response.ErrQuizLocked},
	{service.ErrInvalidPassword, http.StatusForbidden, response.ErrInvalidPassword},
	{service.ErrFeedbackExists, http.StatusConflict, response.ErrFeedbackExists},
	{service.ErrNoCompletedAttempt, http.StatusForbidden, response.ErrNoCompletedAttempt},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
}

// mapServiceError resolves a service error to an HTTP status and error code.
func mapServiceError(err error) (int, response.ErrCode) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failService writes the error response for a service error. Unexpected errors are logged.
func failService(c *gin.Context, log zerolog.Logger, err error) {
	status, code := mapServiceError(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", response.RequestID(c)).
			Msg("Unhandled service error")
	}
	response.Fail(c, status, code)
}

// paramUUID parses a UUID path param, writing INVALID_ID on failure.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// identity returns the caller identity, writing TOKEN_REQUIRED when absent.
func identity(c *gin.Context) (model.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
	}
	return id, ok
}
