package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

// Catalog is the data access surface used by the services.
// PGStore implements it over PostgreSQL; memstore implements it in memory for tests.
type Catalog interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, u *model.User) error

	// Quizzes
	CreateQuiz(ctx context.Context, q *model.Quiz) error
	UpdateQuiz(ctx context.Context, q *model.Quiz) error
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
	GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	ListQuizzesByAuthor(ctx context.Context, authorID int) ([]model.Quiz, error)
	SearchPublicQuizzes(ctx context.Context, f model.QuizSearchFilter) ([]model.Quiz, int, error)
	ReleaseGrades(ctx context.Context, id uuid.UUID) error

	// Questions and options
	ReplaceQuestions(ctx context.Context, quizID uuid.UUID, questions []model.Question) error
	ListQuestions(ctx context.Context, quizID uuid.UUID) ([]model.Question, error)

	// Attempts
	LockAttemptSlot(ctx context.Context, quizID uuid.UUID, studentID int) error
	GetOpenAttempt(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error)
	CountCompletedAttempts(ctx context.Context, quizID uuid.UUID, studentID int) (int, error)
	CreateAttempt(ctx context.Context, a *model.Attempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	GetAttemptForUpdate(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	CompleteAttempt(ctx context.Context, id uuid.UUID, score, maxScore int, at time.Time) error
	ListAttemptsByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.AttemptRow, error)
	ListAttemptsByStudent(ctx context.Context, studentID int) ([]model.AttemptRow, error)

	// Answers
	InsertAnswers(ctx context.Context, answers []model.Answer) error
	ListAnswersByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error)
	ListAnswersByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Answer, error)

	// Shared access
	AddSharedAccess(ctx context.Context, quizID uuid.UUID, userID int) error
	HasSharedAccess(ctx context.Context, quizID uuid.UUID, userID int) (bool, error)
	ListSharedQuizzes(ctx context.Context, userID int) ([]model.Quiz, error)

	// Bookmarks
	ToggleBookmark(ctx context.Context, quizID uuid.UUID, userID int) (bool, error)
	ListBookmarkedQuizzes(ctx context.Context, userID int) ([]model.Quiz, error)

	// Feedback
	CreateFeedback(ctx context.Context, f *model.Feedback) error
	ListFeedbackByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.FeedbackRow, error)

	// Drafts
	UpsertDrafts(ctx context.Context, attemptID uuid.UUID, subs []model.Submission) error
	ListDrafts(ctx context.Context, attemptID uuid.UUID) ([]model.Submission, error)
	DeleteDrafts(ctx context.Context, attemptID uuid.UUID) error
}

// Store is a Catalog that can run a function inside one transaction.
type Store interface {
	Catalog
	// InTx runs fn with a Catalog bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Catalog) error) error
	Ping(ctx context.Context) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PGStore implements Store over a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPGStore creates a new PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, db: pool}
}

// InTx implements Store.
func (s *PGStore) InTx(ctx context.Context, fn func(tx Catalog) error) error {
	if s.pool == nil {
		// Already inside a transaction: join it.
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PGStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Store = (*PGStore)(nil)
