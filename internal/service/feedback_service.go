package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
)

// FeedbackService handles quiz feedback and bookmarks.
type FeedbackService struct {
	store repository.Store
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(store repository.Store) *FeedbackService {
	return &FeedbackService{store: store}
}

// Submit records a student's feedback on a quiz they completed. One per student.
func (s *FeedbackService) Submit(ctx context.Context, id model.Identity, quizID uuid.UUID, body string) (*model.Feedback, error) {
	if !id.IsStudent() {
		return nil, ErrAccessDenied
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	completed, err := s.store.CountCompletedAttempts(ctx, quizID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if completed == 0 {
		return nil, ErrNoCompletedAttempt
	}

	f := &model.Feedback{QuizID: quizID, StudentID: id.UserID, Body: strings.TrimSpace(body)}
	if err := s.store.CreateFeedback(ctx, f); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrFeedbackExists
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return f, nil
}

// ToggleBookmark flips a student's bookmark on a quiz and reports the new state.
func (s *FeedbackService) ToggleBookmark(ctx context.Context, id model.Identity, quizID uuid.UUID) (bool, error) {
	if !id.IsStudent() {
		return false, ErrAccessDenied
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return false, fmt.Errorf("get quiz: %w", err)
	}
	return s.store.ToggleBookmark(ctx, quizID, id.UserID)
}

// Bookmarks lists a student's bookmarked quizzes.
func (s *FeedbackService) Bookmarks(ctx context.Context, id model.Identity) ([]model.Quiz, error) {
	if !id.IsStudent() {
		return nil, ErrAccessDenied
	}
	quizzes, err := s.store.ListBookmarkedQuizzes(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}
	return quizzes, nil
}
