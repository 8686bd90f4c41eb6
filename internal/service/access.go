package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
)

// checkQuizAccess enforces the private-quiz rules: a private quiz without a password
// is reserved to its author, and one with a password requires a shared-access grant.
func checkQuizAccess(ctx context.Context, cat repository.Catalog, id model.Identity, quiz *model.Quiz) error {
	if quiz.IsPublic || quiz.IsAuthor(id.UserID) {
		return nil
	}
	if !quiz.HasPassword() {
		return ErrAccessDenied
	}
	shared, err := cat.HasSharedAccess(ctx, quiz.ID, id.UserID)
	if err != nil {
		return fmt.Errorf("check shared access: %w", err)
	}
	if !shared {
		return ErrPasswordRequired
	}
	return nil
}

// loadOwnedQuiz loads a quiz and checks the caller is the teacher who wrote it.
func loadOwnedQuiz(ctx context.Context, cat repository.Catalog, id model.Identity, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := cat.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if !id.IsTeacher() || !quiz.IsAuthor(id.UserID) {
		return nil, ErrAccessDenied
	}
	return quiz, nil
}
