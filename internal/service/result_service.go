package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
	"github.com/stemsi/quizwizz-backend/internal/scoring"
)

// ResultService serves graded results behind the grade visibility gate.
type ResultService struct {
	store    repository.Store
	notifier Dispatcher
	log      zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(store repository.Store, notifier Dispatcher, log zerolog.Logger) *ResultService {
	return &ResultService{
		store:    store,
		notifier: notifier,
		log:      logger.Component(log, "result_service"),
	}
}

// ReleaseGrades opens grades of a quiz to its students. It is idempotent and
// one-way; the boolean result is true only when this call flipped the flag.
func (s *ResultService) ReleaseGrades(ctx context.Context, id model.Identity, quizID uuid.UUID) (*model.Quiz, bool, error) {
	var changed bool
	var quiz *model.Quiz
	err := s.store.InTx(ctx, func(tx repository.Catalog) error {
		q, err := loadOwnedQuiz(ctx, tx, id, quizID)
		if err != nil {
			return err
		}
		quiz = q
		if q.GradesReleased {
			return nil
		}
		if err := tx.ReleaseGrades(ctx, quizID); err != nil {
			return fmt.Errorf("release grades: %w", err)
		}
		quiz.GradesReleased = true
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.log.Info().Str("quiz_id", quizID.String()).Int("author_id", id.UserID).Msg("Grades released")
	}
	return quiz, changed, nil
}

// NotifyGradesReleased queues one notification per student with a completed attempt.
func (s *ResultService) NotifyGradesReleased(ctx context.Context, quiz *model.Quiz) int {
	rows, err := s.store.ListAttemptsByQuiz(ctx, quiz.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("Skip grade release notifications")
		return 0
	}
	seen := make(map[int]struct{})
	for _, r := range rows {
		if !r.IsCompleted() {
			continue
		}
		if _, dup := seen[r.StudentID]; dup {
			continue
		}
		seen[r.StudentID] = struct{}{}
		s.notifier.Dispatch(ctx, model.Notification{
			Kind:      model.NotificationGradesReleased,
			Recipient: r.StudentEmail,
			Name:      r.StudentUsername,
			QuizID:    quiz.ID,
			QuizTitle: quiz.Title,
		})
	}
	return len(seen)
}

// AttemptResult returns one attempt as the caller is allowed to see it.
func (s *ResultService) AttemptResult(ctx context.Context, id model.Identity, attemptID uuid.UUID) (*model.AttemptResult, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	quiz, err := s.store.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	visible, err := canSeeGrades(id, quiz, attempt)
	if err != nil {
		return nil, err
	}

	var (
		questions []model.Question
		answers   []model.Answer
	)
	if visible && attempt.IsCompleted() {
		if questions, err = s.store.ListQuestions(ctx, quiz.ID); err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		if answers, err = s.store.ListAnswersByAttempt(ctx, attempt.ID); err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
	}
	return GateResult(id, quiz, attempt, questions, answers)
}

func (s *ResultService) quizStats(ctx context.Context, quizID uuid.UUID) (model.QuizStats, []model.AttemptRow, int, error) {
	questions, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return model.QuizStats{}, nil, 0, fmt.Errorf("list questions: %w", err)
	}
	rows, err := s.store.ListAttemptsByQuiz(ctx, quizID)
	if err != nil {
		return model.QuizStats{}, nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	answers, err := s.store.ListAnswersByQuiz(ctx, quizID)
	if err != nil {
		return model.QuizStats{}, nil, 0, fmt.Errorf("list answers: %w", err)
	}

	attempts := make([]model.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.Attempt)
	}
	return scoring.QuizAggregates(questions, attempts, answers), rows, len(questions), nil
}

// QuizResults returns statistics, attempts and feedback of a quiz to its author.
func (s *ResultService) QuizResults(ctx context.Context, id model.Identity, quizID uuid.UUID) (*model.QuizResults, error) {
	quiz, err := loadOwnedQuiz(ctx, s.store, id, quizID)
	if err != nil {
		return nil, err
	}
	stats, rows, _, err := s.quizStats(ctx, quizID)
	if err != nil {
		return nil, err
	}
	feedback, err := s.store.ListFeedbackByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	if rows == nil {
		rows = []model.AttemptRow{}
	}
	if feedback == nil {
		feedback = []model.FeedbackRow{}
	}
	return &model.QuizResults{Quiz: *quiz, Stats: stats, Attempts: rows, Feedback: feedback}, nil
}

// TeacherDashboard summarizes every quiz authored by the calling teacher.
func (s *ResultService) TeacherDashboard(ctx context.Context, id model.Identity) (*model.TeacherDashboard, error) {
	if !id.IsTeacher() {
		return nil, ErrAccessDenied
	}
	quizzes, err := s.store.ListQuizzesByAuthor(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	dash := &model.TeacherDashboard{
		TotalQuizzes: len(quizzes),
		Quizzes:      make([]model.QuizSummary, 0, len(quizzes)),
	}
	for _, q := range quizzes {
		stats, _, questionCount, err := s.quizStats(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		dash.TotalAttempts += stats.TotalAttempts
		dash.Quizzes = append(dash.Quizzes, model.QuizSummary{
			QuizID:             q.ID,
			Title:              q.Title,
			Category:           q.Category,
			GradesReleased:     q.GradesReleased,
			QuestionCount:      questionCount,
			TotalAttempts:      stats.TotalAttempts,
			InProgressAttempts: stats.InProgressAttempts,
			AvgPercentage:      stats.AvgPercentage,
		})
	}
	return dash, nil
}
