package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
)

// AccessService manages the shared-access allow-list of private quizzes and invitations.
type AccessService struct {
	store    repository.Store
	notifier Dispatcher
	baseURL  string
	log      zerolog.Logger
}

// NewAccessService creates a new AccessService. baseURL is used to build invitation links.
func NewAccessService(store repository.Store, notifier Dispatcher, baseURL string, log zerolog.Logger) *AccessService {
	return &AccessService{
		store:    store,
		notifier: notifier,
		baseURL:  baseURL,
		log:      logger.Component(log, "access_service"),
	}
}

// EnterPassword unlocks a private quiz for the caller. A correct password adds the caller
// to the quiz's shared-access set; repeating it is a no-op. Public quizzes need no password.
func (s *AccessService) EnterPassword(ctx context.Context, id model.Identity, quizID uuid.UUID, password string) error {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("get quiz: %w", err)
	}
	if quiz.IsPublic || quiz.IsAuthor(id.UserID) {
		return nil
	}
	if !quiz.HasPassword() {
		return ErrAccessDenied
	}
	if subtle.ConstantTimeCompare([]byte(quiz.Password), []byte(password)) != 1 {
		s.log.Warn().Str("quiz_id", quizID.String()).Int("user_id", id.UserID).Msg("Wrong quiz password")
		return ErrInvalidPassword
	}
	if err := s.store.AddSharedAccess(ctx, quizID, id.UserID); err != nil {
		return fmt.Errorf("add shared access: %w", err)
	}
	return nil
}

// AddByLink adds a public quiz reached through a shared link to the caller's list.
// Private quizzes still need their password.
func (s *AccessService) AddByLink(ctx context.Context, id model.Identity, quizID uuid.UUID) error {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("get quiz: %w", err)
	}
	if !quiz.IsPublic {
		if err := checkQuizAccess(ctx, s.store, id, quiz); err != nil {
			return err
		}
	}
	if err := s.store.AddSharedAccess(ctx, quizID, id.UserID); err != nil {
		return fmt.Errorf("add shared access: %w", err)
	}
	return nil
}

// QuizLink returns the public link of a quiz.
func (s *AccessService) QuizLink(quizID uuid.UUID) string {
	return fmt.Sprintf("%s/quizzes/%s", s.baseURL, quizID)
}

// Invite emails a quiz invitation on behalf of the quiz author.
func (s *AccessService) Invite(ctx context.Context, id model.Identity, quizID uuid.UUID, email string) error {
	quiz, err := loadOwnedQuiz(ctx, s.store, id, quizID)
	if err != nil {
		return err
	}
	author, err := s.store.GetUserByID(ctx, id.UserID)
	if err != nil {
		return fmt.Errorf("get author: %w", err)
	}
	s.notifier.Dispatch(ctx, model.Notification{
		Kind:      model.NotificationQuizInvitation,
		Recipient: email,
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		Payload: map[string]string{
			"teacher": author.Username,
			"link":    s.QuizLink(quiz.ID),
		},
	})
	return nil
}
