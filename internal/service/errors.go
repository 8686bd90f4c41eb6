package service

import (
	"errors"
	"fmt"

	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
)

// Domain errors. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound              = repository.ErrNotFound
	ErrAccessDenied          = errors.New("access denied")
	ErrPasswordRequired      = fmt.Errorf("%w: quiz password required", ErrAccessDenied)
	ErrNotYetOpen            = errors.New("quiz is not open yet")
	ErrClosed                = errors.New("quiz is closed")
	ErrAttemptLimitReached   = errors.New("attempt limit reached")
	ErrGradesAlreadyReleased = errors.New("grades already released")
	ErrAlreadyCompleted      = errors.New("attempt already completed")
	ErrInvalidQuestion       = model.ErrInvalidQuestion
	ErrInvalidSchedule       = errors.New("end time must be after start time")
	ErrQuizLocked            = errors.New("quiz already has attempts")
	ErrInvalidPassword       = errors.New("invalid quiz password")
	ErrFeedbackExists        = errors.New("feedback already submitted")
	ErrNoCompletedAttempt    = errors.New("no completed attempt")
	ErrEmailTaken            = errors.New("username or email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)
