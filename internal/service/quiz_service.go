package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
	"github.com/stemsi/quizwizz-backend/internal/response"
	"github.com/stemsi/quizwizz-backend/internal/scoring"
)

// QuizService handles quiz authoring and catalog browsing.
type QuizService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(store repository.Store, log zerolog.Logger) *QuizService {
	return &QuizService{
		store: store,
		log:   logger.Component(log, "quiz_service"),
	}
}

// buildQuestions converts authoring input into questions and validates each one.
func buildQuestions(inputs []model.QuestionInput) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		q := in.ToQuestion(uuid.Nil)
		if _, err := q.Body(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

type quizSettings struct {
	title, description, category, password string
	isPublic                                *bool
	timeLimit                               *int
	maxAttempts                             int
}

func applySettings(q *model.Quiz, s quizSettings) {
	q.Title = strings.TrimSpace(s.title)
	q.Description = strings.TrimSpace(s.description)
	q.Category = s.category
	q.Password = s.password
	q.IsPublic = true
	if s.isPublic != nil {
		q.IsPublic = *s.isPublic
	}
	q.TimeLimitMinutes = s.timeLimit
	q.MaxAttempts = s.maxAttempts
	if q.MaxAttempts < 1 {
		q.MaxAttempts = 1
	}
}

// Create stores a new quiz together with its questions.
func (s *QuizService) Create(ctx context.Context, id model.Identity, req *model.CreateQuizRequest) (*model.QuizWithQuestions, error) {
	if !id.IsTeacher() {
		return nil, ErrAccessDenied
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return nil, ErrInvalidSchedule
	}
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{AuthorID: id.UserID, StartTime: req.StartTime, EndTime: req.EndTime}
	applySettings(quiz, quizSettings{
		title: req.Title, description: req.Description, category: req.Category,
		password: req.Password, isPublic: req.IsPublic, timeLimit: req.TimeLimitMinutes,
		maxAttempts: req.MaxAttempts,
	})

	err = s.store.InTx(ctx, func(tx repository.Catalog) error {
		if err := tx.CreateQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
		}
		if err := tx.ReplaceQuestions(ctx, quiz.ID, questions); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("quiz_id", quiz.ID.String()).
		Int("author_id", id.UserID).
		Int("questions", len(questions)).
		Msg("Quiz created")
	return &model.QuizWithQuestions{Quiz: *quiz, HasPassword: quiz.HasPassword(), Questions: questions}, nil
}

// Update edits quiz settings. It cannot change grades_released.
func (s *QuizService) Update(ctx context.Context, id model.Identity, quizID uuid.UUID, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return nil, ErrInvalidSchedule
	}
	quiz, err := loadOwnedQuiz(ctx, s.store, id, quizID)
	if err != nil {
		return nil, err
	}

	applySettings(quiz, quizSettings{
		title: req.Title, description: req.Description, category: req.Category,
		password: req.Password, isPublic: req.IsPublic, timeLimit: req.TimeLimitMinutes,
		maxAttempts: req.MaxAttempts,
	})
	quiz.StartTime = req.StartTime
	quiz.EndTime = req.EndTime

	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	return quiz, nil
}

// Delete removes a quiz and everything that hangs off it.
func (s *QuizService) Delete(ctx context.Context, id model.Identity, quizID uuid.UUID) error {
	if _, err := loadOwnedQuiz(ctx, s.store, id, quizID); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	s.log.Info().Str("quiz_id", quizID.String()).Int("author_id", id.UserID).Msg("Quiz deleted")
	return nil
}

// ReplaceQuestions swaps a quiz's full question set. Quizzes that already have
// attempts are locked, since graded answers reference the existing questions.
func (s *QuizService) ReplaceQuestions(ctx context.Context, id model.Identity, quizID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx repository.Catalog) error {
		if _, err := loadOwnedQuiz(ctx, tx, id, quizID); err != nil {
			return err
		}
		attempts, err := tx.ListAttemptsByQuiz(ctx, quizID)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		if len(attempts) > 0 {
			return ErrQuizLocked
		}
		for i := range questions {
			questions[i].QuizID = quizID
		}
		return tx.ReplaceQuestions(ctx, quizID, questions)
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetForAuthor returns the author's full view of a quiz, answers included.
func (s *QuizService) GetForAuthor(ctx context.Context, id model.Identity, quizID uuid.UUID) (*model.QuizWithQuestions, error) {
	quiz, err := loadOwnedQuiz(ctx, s.store, id, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	scoring.SortQuestions(questions)
	return &model.QuizWithQuestions{Quiz: *quiz, HasPassword: quiz.HasPassword(), Questions: questions}, nil
}

// ListMine lists the quizzes authored by the calling teacher.
func (s *QuizService) ListMine(ctx context.Context, id model.Identity) ([]model.Quiz, error) {
	if !id.IsTeacher() {
		return nil, ErrAccessDenied
	}
	return s.store.ListQuizzesByAuthor(ctx, id.UserID)
}

// GetPaper returns the student view of a quiz: settings and questions without answers.
func (s *QuizService) GetPaper(ctx context.Context, id model.Identity, quizID uuid.UUID) (*model.QuizPaper, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if err := checkQuizAccess(ctx, s.store, id, quiz); err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	scoring.SortQuestions(questions)

	paper := &model.QuizPaper{
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		Category:         quiz.Category,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		MaxAttempts:      quiz.MaxAttempts,
		StartTime:        quiz.StartTime,
		EndTime:          quiz.EndTime,
		GradesReleased:   quiz.GradesReleased,
		Questions:        make([]model.QuestionPaper, 0, len(questions)),
	}
	for i := range questions {
		paper.Questions = append(paper.Questions, questions[i].Paper())
	}
	return paper, nil
}

// Search lists public quizzes by title and category, paginated.
func (s *QuizService) Search(ctx context.Context, search, category string, page, perPage int) ([]model.Quiz, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 12
	}
	quizzes, total, err := s.store.SearchPublicQuizzes(ctx, model.QuizSearchFilter{
		Search:   strings.TrimSpace(search),
		Category: category,
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("search quizzes: %w", err)
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	return quizzes, response.NewPagination(page, perPage, total), nil
}
