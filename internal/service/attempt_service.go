package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
	"github.com/stemsi/quizwizz-backend/internal/scoring"
)

// AttemptService manages the attempt lifecycle: acquiring, autosaving and completing attempts.
type AttemptService struct {
	store    repository.Store
	drafts   repository.DraftCache
	notifier Dispatcher
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(store repository.Store, drafts repository.DraftCache, notifier Dispatcher, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		store:    store,
		drafts:   drafts,
		notifier: notifier,
		log:      logger.Component(log, "attempt_service"),
	}
}

// AcquireAttempt returns the student's usable attempt on a quiz, resuming the
// incomplete one when it exists and creating a new one otherwise.
// The boolean result is true when a new attempt was created.
func (s *AttemptService) AcquireAttempt(ctx context.Context, id model.Identity, quizID uuid.UUID, now time.Time) (*model.Attempt, bool, error) {
	if !id.IsStudent() {
		return nil, false, ErrAccessDenied
	}

	var (
		attempt *model.Attempt
		created bool
	)
	err := s.store.InTx(ctx, func(tx repository.Catalog) error {
		quiz, err := tx.GetQuiz(ctx, quizID)
		if err != nil {
			return fmt.Errorf("get quiz: %w", err)
		}
		if err := checkQuizAccess(ctx, tx, id, quiz); err != nil {
			return err
		}
		if quiz.GradesReleased {
			return ErrGradesAlreadyReleased
		}
		if quiz.StartTime != nil && now.Before(*quiz.StartTime) {
			return ErrNotYetOpen
		}
		if quiz.EndTime != nil && now.After(*quiz.EndTime) {
			return ErrClosed
		}

		// Serialize concurrent acquires for the same pair before read-then-write.
		if err := tx.LockAttemptSlot(ctx, quizID, id.UserID); err != nil {
			return fmt.Errorf("lock attempt slot: %w", err)
		}

		completed, err := tx.CountCompletedAttempts(ctx, quizID, id.UserID)
		if err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		if completed >= quiz.MaxAttempts {
			return ErrAttemptLimitReached
		}

		open, err := tx.GetOpenAttempt(ctx, quizID, id.UserID)
		if err == nil {
			attempt = open
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("get open attempt: %w", err)
		}

		a := &model.Attempt{QuizID: quizID, StudentID: id.UserID, StartedAt: now}
		if err := tx.CreateAttempt(ctx, a); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("create attempt: %w", err)
			}
			// Lost a race the lock did not cover: resume the winner's attempt.
			open, err := tx.GetOpenAttempt(ctx, quizID, id.UserID)
			if err != nil {
				return fmt.Errorf("concurrent create detected, but fetch failed: %w", err)
			}
			attempt = open
			return nil
		}
		attempt = a
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Info().
			Str("attempt_id", attempt.ID.String()).
			Str("quiz_id", quizID.String()).
			Int("student_id", id.UserID).
			Msg("Attempt started")
	}
	return attempt, created, nil
}

// loadOwnAttempt loads an attempt and checks the caller is the student who owns it.
func loadOwnAttempt(ctx context.Context, cat repository.Catalog, id model.Identity, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, err := cat.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if !id.IsStudent() || attempt.StudentID != id.UserID {
		return nil, ErrAccessDenied
	}
	return attempt, nil
}

// SaveDraft autosaves one answer of an in-progress attempt.
func (s *AttemptService) SaveDraft(ctx context.Context, id model.Identity, attemptID uuid.UUID, sub model.Submission) error {
	attempt, err := loadOwnAttempt(ctx, s.store, id, attemptID)
	if err != nil {
		return err
	}
	if attempt.IsCompleted() {
		return ErrAlreadyCompleted
	}

	questions, err := s.store.ListQuestions(ctx, attempt.QuizID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	known := false
	for _, q := range questions {
		if q.ID == sub.QuestionID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("question %s: %w", sub.QuestionID, ErrNotFound)
	}

	if err := s.drafts.Save(ctx, attemptID, sub); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// loadDrafts reads drafts from the cache, falling back to PostgreSQL and re-warming the cache.
func (s *AttemptService) loadDrafts(ctx context.Context, attemptID uuid.UUID) map[uuid.UUID]model.Submission {
	drafts, err := s.drafts.Load(ctx, attemptID)
	if err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Draft cache read failed, using database")
	}
	if drafts != nil {
		return drafts
	}

	persisted, err := s.store.ListDrafts(ctx, attemptID)
	if err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Draft database read failed")
		return map[uuid.UUID]model.Submission{}
	}
	drafts = make(map[uuid.UUID]model.Submission, len(persisted))
	for _, sub := range persisted {
		drafts[sub.QuestionID] = sub
	}
	if len(persisted) > 0 {
		_ = s.drafts.Warm(ctx, attemptID, persisted)
	}
	return drafts
}

// AttemptState returns what a student needs to render or resume an in-progress attempt.
func (s *AttemptService) AttemptState(ctx context.Context, id model.Identity, attemptID uuid.UUID, now time.Time) (*model.AttemptState, error) {
	attempt, err := loadOwnAttempt(ctx, s.store, id, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}

	quiz, err := s.store.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	questions, err := s.store.ListQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	scoring.SortQuestions(questions)

	state := &model.AttemptState{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		StartedAt: attempt.StartedAt,
		Questions: make([]model.QuestionPaper, 0, len(questions)),
		Drafts:    s.loadDrafts(ctx, attempt.ID),
	}
	for i := range questions {
		state.Questions = append(state.Questions, questions[i].Paper())
	}

	// The time limit is informational: it is reported, not enforced.
	if quiz.TimeLimitMinutes != nil {
		end := attempt.StartedAt.Add(time.Duration(*quiz.TimeLimitMinutes) * time.Minute)
		remaining := end.Sub(now).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		state.RemainingSeconds = &remaining
	}
	return state, nil
}

// CompleteAttempt grades and finalizes an attempt. Submitted answers take precedence
// over autosaved drafts; questions with neither are graded as unanswered.
// Completion is one-way: a second call fails with ErrAlreadyCompleted.
func (s *AttemptService) CompleteAttempt(ctx context.Context, id model.Identity, attemptID uuid.UUID, subs []model.Submission, now time.Time) (*model.Attempt, error) {
	if !id.IsStudent() {
		return nil, ErrAccessDenied
	}

	// Read drafts before the transaction; they never override an explicit submission.
	merged := s.loadDrafts(ctx, attemptID)
	for _, sub := range subs {
		merged[sub.QuestionID] = sub
	}

	var (
		completed *model.Attempt
		quiz      *model.Quiz
	)
	err := s.store.InTx(ctx, func(tx repository.Catalog) error {
		attempt, err := tx.GetAttemptForUpdate(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("get attempt: %w", err)
		}
		if attempt.StudentID != id.UserID {
			return ErrAccessDenied
		}
		if attempt.IsCompleted() {
			return ErrAlreadyCompleted
		}

		quiz, err = tx.GetQuiz(ctx, attempt.QuizID)
		if err != nil {
			return fmt.Errorf("get quiz: %w", err)
		}
		// An open attempt does not outlive the quiz window or a grade release.
		if quiz.GradesReleased {
			return ErrGradesAlreadyReleased
		}
		if quiz.EndTime != nil && now.After(*quiz.EndTime) {
			return ErrClosed
		}
		questions, err := tx.ListQuestions(ctx, attempt.QuizID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		scored := scoring.ScoreAttempt(attempt.ID, questions, merged)
		if err := tx.InsertAnswers(ctx, scored.Answers); err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		if err := tx.CompleteAttempt(ctx, attempt.ID, scored.Score, scored.MaxScore, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("complete attempt: %w", err)
		}
		if err := tx.DeleteDrafts(ctx, attempt.ID); err != nil {
			return fmt.Errorf("delete drafts: %w", err)
		}

		attempt.Score = &scored.Score
		attempt.MaxScore = &scored.MaxScore
		attempt.CompletedAt = &now
		completed = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Clear(ctx, attemptID); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Clear draft cache failed")
	}

	s.log.Info().
		Str("attempt_id", completed.ID.String()).
		Str("quiz_id", completed.QuizID.String()).
		Int("student_id", completed.StudentID).
		Int("score", *completed.Score).
		Int("max_score", *completed.MaxScore).
		Msg("Attempt completed and graded")

	s.notifySubmission(ctx, quiz, completed)
	return completed, nil
}

// notifySubmission tells the student their attempt was received. Scores are not
// included because they may still be hidden.
func (s *AttemptService) notifySubmission(ctx context.Context, quiz *model.Quiz, attempt *model.Attempt) {
	student, err := s.store.GetUserByID(ctx, attempt.StudentID)
	if err != nil {
		s.log.Warn().Err(err).Int("student_id", attempt.StudentID).Msg("Skip submission notification")
		return
	}
	attemptID := attempt.ID
	s.notifier.Dispatch(ctx, model.Notification{
		Kind:      model.NotificationSubmissionReceived,
		Recipient: student.Email,
		Name:      student.Username,
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		AttemptID: &attemptID,
	})
}

// StudentDashboard lists a student's attempts and the private quizzes shared with them.
// Scores of attempts on quizzes with unreleased grades are withheld.
func (s *AttemptService) StudentDashboard(ctx context.Context, id model.Identity) (*model.StudentDashboard, error) {
	if !id.IsStudent() {
		return nil, ErrAccessDenied
	}
	rows, err := s.store.ListAttemptsByStudent(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	shared, err := s.store.ListSharedQuizzes(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list shared quizzes: %w", err)
	}

	dash := &model.StudentDashboard{
		InProgress:    []model.AttemptResult{},
		Completed:     []model.AttemptResult{},
		SharedQuizzes: shared,
	}
	quizzes := make(map[uuid.UUID]*model.Quiz)
	for i := range rows {
		quiz, err := s.cachedQuiz(ctx, quizzes, rows[i].QuizID)
		if err != nil {
			continue
		}
		res, err := GateResult(id, quiz, &rows[i].Attempt, nil, nil)
		if err != nil {
			return nil, err
		}
		// The dashboard is a summary: per-question detail lives on the result page.
		res.Answers = nil
		if rows[i].IsCompleted() {
			dash.Completed = append(dash.Completed, *res)
		} else {
			dash.InProgress = append(dash.InProgress, *res)
		}
	}
	return dash, nil
}

// StudentPerformance reports per-quiz highest, lowest and average scores over the
// student's completed attempts. Score fields stay empty until grades are released.
func (s *AttemptService) StudentPerformance(ctx context.Context, id model.Identity) ([]model.QuizPerformance, error) {
	if !id.IsStudent() {
		return nil, ErrAccessDenied
	}
	rows, err := s.store.ListAttemptsByStudent(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	quizzes := make(map[uuid.UUID]*model.Quiz)
	perf := make(map[uuid.UUID]*model.QuizPerformance)
	sums := make(map[uuid.UUID]int)
	var order []uuid.UUID

	for _, r := range rows {
		if !r.IsCompleted() || r.Score == nil {
			continue
		}
		quiz, err := s.cachedQuiz(ctx, quizzes, r.QuizID)
		if err != nil {
			continue
		}
		p, ok := perf[r.QuizID]
		if !ok {
			p = &model.QuizPerformance{
				QuizID:         quiz.ID,
				QuizTitle:      quiz.Title,
				Category:       quiz.Category,
				GradesReleased: quiz.GradesReleased,
			}
			perf[r.QuizID] = p
			order = append(order, r.QuizID)
		}
		p.Attempts++
		if !quiz.GradesReleased {
			continue
		}
		score := *r.Score
		if p.HighestScore == nil || score > *p.HighestScore {
			p.HighestScore = &score
		}
		if p.LowestScore == nil || score < *p.LowestScore {
			lowest := score
			p.LowestScore = &lowest
		}
		p.MaxScore = r.MaxScore
		sums[r.QuizID] += score
	}

	out := make([]model.QuizPerformance, 0, len(order))
	for _, qid := range order {
		p := perf[qid]
		if p.GradesReleased && p.Attempts > 0 {
			avg := float64(sums[qid]) / float64(p.Attempts)
			p.AverageScore = &avg
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *AttemptService) cachedQuiz(ctx context.Context, cache map[uuid.UUID]*model.Quiz, quizID uuid.UUID) (*model.Quiz, error) {
	if q, ok := cache[quizID]; ok {
		return q, nil
	}
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	cache[quizID] = q
	return q, nil
}
