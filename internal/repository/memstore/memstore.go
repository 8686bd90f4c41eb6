// Package memstore is an in-memory repository.Store used by service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
)

type pair struct {
	quizID uuid.UUID
	userID int
}

type state struct {
	nextUserID int
	users      map[int]model.User
	quizzes    map[uuid.UUID]model.Quiz
	questions  map[uuid.UUID][]model.Question
	attempts   map[uuid.UUID]model.Attempt
	answers    map[uuid.UUID][]model.Answer
	shares     map[pair]time.Time
	bookmarks  map[pair]time.Time
	feedback   map[pair]model.Feedback
	drafts     map[uuid.UUID]map[uuid.UUID]model.Submission
}

func newState() *state {
	return &state{
		users:     make(map[int]model.User),
		quizzes:   make(map[uuid.UUID]model.Quiz),
		questions: make(map[uuid.UUID][]model.Question),
		attempts:  make(map[uuid.UUID]model.Attempt),
		answers:   make(map[uuid.UUID][]model.Answer),
		shares:    make(map[pair]time.Time),
		bookmarks: make(map[pair]time.Time),
		feedback:  make(map[pair]model.Feedback),
		drafts:    make(map[uuid.UUID]map[uuid.UUID]model.Submission),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextUserID = s.nextUserID
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.quizzes {
		c.quizzes[k] = v
	}
	for k, v := range s.questions {
		c.questions[k] = append([]model.Question(nil), v...)
	}
	for k, v := range s.attempts {
		c.attempts[k] = v
	}
	for k, v := range s.answers {
		c.answers[k] = append([]model.Answer(nil), v...)
	}
	for k, v := range s.shares {
		c.shares[k] = v
	}
	for k, v := range s.bookmarks {
		c.bookmarks[k] = v
	}
	for k, v := range s.feedback {
		c.feedback[k] = v
	}
	for k, v := range s.drafts {
		m := make(map[uuid.UUID]model.Submission, len(v))
		for qk, qv := range v {
			m[qk] = qv
		}
		c.drafts[k] = m
	}
	return c
}

// Store is an in-memory repository.Store. Transactions are serialized and roll
// back by restoring a snapshot taken when they began.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
	now  func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

var _ repository.Store = (*Store)(nil)

// InTx implements repository.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Catalog) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Ping implements repository.Store.
func (s *Store) Ping(ctx context.Context) error { return nil }

// ─── Users ──────────────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	for _, existing := range s.st.users {
		if existing.Username == u.Username || existing.Email == email {
			return repository.ErrConflict
		}
	}
	s.st.nextUserID++
	u.ID = s.st.nextUserID
	u.Email = email
	u.CreatedAt = s.now()
	s.st.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.st.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.st.users {
		if id != u.ID && existing.Username == u.Username {
			return repository.ErrConflict
		}
	}
	current.Username, current.Bio = u.Username, u.Bio
	s.st.users[u.ID] = current
	return nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if u.Username == login || u.Email == strings.ToLower(login) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ─── Quizzes ────────────────────────────────────────────────────────

func (s *Store) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := s.now()
	q.GradesReleased = false
	q.CreatedAt, q.UpdatedAt = now, now
	s.st.quizzes[q.ID] = *q
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.st.quizzes[q.ID]
	if !ok {
		return repository.ErrNotFound
	}
	q.GradesReleased = existing.GradesReleased
	q.AuthorID = existing.AuthorID
	q.CreatedAt = existing.CreatedAt
	q.UpdatedAt = s.now()
	s.st.quizzes[q.ID] = *q
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.quizzes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.st.quizzes, id)
	delete(s.st.questions, id)
	for aid, a := range s.st.attempts {
		if a.QuizID == id {
			delete(s.st.attempts, aid)
			delete(s.st.answers, aid)
			delete(s.st.drafts, aid)
		}
	}
	for k := range s.st.shares {
		if k.quizID == id {
			delete(s.st.shares, k)
		}
	}
	for k := range s.st.bookmarks {
		if k.quizID == id {
			delete(s.st.bookmarks, k)
		}
	}
	for k := range s.st.feedback {
		if k.quizID == id {
			delete(s.st.feedback, k)
		}
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.st.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func sortQuizzes(qs []model.Quiz) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].CreatedAt.After(qs[j].CreatedAt) })
}

func (s *Store) ListQuizzesByAuthor(ctx context.Context, authorID int) ([]model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Quiz
	for _, q := range s.st.quizzes {
		if q.AuthorID == authorID {
			out = append(out, q)
		}
	}
	sortQuizzes(out)
	return out, nil
}

func (s *Store) SearchPublicQuizzes(ctx context.Context, f model.QuizSearchFilter) ([]model.Quiz, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Quiz
	for _, q := range s.st.quizzes {
		if !q.IsPublic {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(q.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.Category != "" && q.Category != f.Category {
			continue
		}
		matched = append(matched, q)
	}
	sortQuizzes(matched)
	total := len(matched)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (s *Store) ReleaseGrades(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.st.quizzes[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.GradesReleased = true
	q.UpdatedAt = s.now()
	s.st.quizzes[id] = q
	return nil
}

// ─── Questions ──────────────────────────────────────────────────────

func (s *Store) ReplaceQuestions(ctx context.Context, quizID uuid.UUID, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.Question, len(questions))
	for i, q := range questions {
		q.QuizID = quizID
		q.Options = append([]model.Option(nil), q.Options...)
		cp[i] = q
	}
	s.st.questions[quizID] = cp
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, 0, len(s.st.questions[quizID]))
	for _, q := range s.st.questions[quizID] {
		q.Options = append([]model.Option(nil), q.Options...)
		sort.SliceStable(q.Options, func(i, j int) bool { return q.Options[i].OrderNum < q.Options[j].OrderNum })
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderNum < out[j].OrderNum })
	return out, nil
}

// ─── Attempts ───────────────────────────────────────────────────────

// LockAttemptSlot is a no-op: transactions are already serialized.
func (s *Store) LockAttemptSlot(ctx context.Context, quizID uuid.UUID, studentID int) error {
	return nil
}

func (s *Store) GetOpenAttempt(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.st.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && !a.IsCompleted() {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CountCompletedAttempts(ctx context.Context, quizID uuid.UUID, studentID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.st.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && a.IsCompleted() {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateAttempt(ctx context.Context, a *model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.attempts {
		if existing.QuizID == a.QuizID && existing.StudentID == a.StudentID && !existing.IsCompleted() {
			return repository.ErrConflict
		}
	}
	a.ID = uuid.New()
	s.st.attempts[a.ID] = *a
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) GetAttemptForUpdate(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return s.GetAttempt(ctx, id)
}

func (s *Store) CompleteAttempt(ctx context.Context, id uuid.UUID, score, maxScore int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.attempts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.IsCompleted() {
		return repository.ErrConflict
	}
	a.Score, a.MaxScore, a.CompletedAt = &score, &maxScore, &at
	s.st.attempts[id] = a
	return nil
}

func (s *Store) attemptRows(match func(model.Attempt) bool) []model.AttemptRow {
	var out []model.AttemptRow
	for _, a := range s.st.attempts {
		if !match(a) {
			continue
		}
		row := model.AttemptRow{Attempt: a}
		if q, ok := s.st.quizzes[a.QuizID]; ok {
			row.QuizTitle = q.Title
		}
		if u, ok := s.st.users[a.StudentID]; ok {
			row.StudentUsername = u.Username
			row.StudentEmail = u.Email
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func (s *Store) ListAttemptsByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.AttemptRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptRows(func(a model.Attempt) bool { return a.QuizID == quizID }), nil
}

func (s *Store) ListAttemptsByStudent(ctx context.Context, studentID int) ([]model.AttemptRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptRows(func(a model.Attempt) bool { return a.StudentID == studentID }), nil
}

// ─── Answers ────────────────────────────────────────────────────────

func (s *Store) InsertAnswers(ctx context.Context, answers []model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range answers {
		s.st.answers[a.AttemptID] = append(s.st.answers[a.AttemptID], a)
	}
	return nil
}

func (s *Store) ListAnswersByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Answer(nil), s.st.answers[attemptID]...), nil
}

func (s *Store) ListAnswersByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Answer
	for id, a := range s.st.attempts {
		if a.QuizID == quizID && a.IsCompleted() {
			out = append(out, s.st.answers[id]...)
		}
	}
	return out, nil
}

// ─── Shared access & bookmarks ──────────────────────────────────────

func (s *Store) AddSharedAccess(ctx context.Context, quizID uuid.UUID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{quizID, userID}
	if _, ok := s.st.shares[k]; !ok {
		s.st.shares[k] = s.now()
	}
	return nil
}

func (s *Store) HasSharedAccess(ctx context.Context, quizID uuid.UUID, userID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.shares[pair{quizID, userID}]
	return ok, nil
}

func (s *Store) quizzesFor(set map[pair]time.Time, userID int) []model.Quiz {
	type entry struct {
		q  model.Quiz
		at time.Time
	}
	var entries []entry
	for k, at := range set {
		if k.userID != userID {
			continue
		}
		if q, ok := s.st.quizzes[k.quizID]; ok {
			entries = append(entries, entry{q, at})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	out := make([]model.Quiz, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.q)
	}
	return out
}

func (s *Store) ListSharedQuizzes(ctx context.Context, userID int) ([]model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizzesFor(s.st.shares, userID), nil
}

func (s *Store) ToggleBookmark(ctx context.Context, quizID uuid.UUID, userID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{quizID, userID}
	if _, ok := s.st.bookmarks[k]; ok {
		delete(s.st.bookmarks, k)
		return false, nil
	}
	s.st.bookmarks[k] = s.now()
	return true, nil
}

func (s *Store) ListBookmarkedQuizzes(ctx context.Context, userID int) ([]model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizzesFor(s.st.bookmarks, userID), nil
}

// ─── Feedback ───────────────────────────────────────────────────────

func (s *Store) CreateFeedback(ctx context.Context, f *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{f.QuizID, f.StudentID}
	if _, ok := s.st.feedback[k]; ok {
		return repository.ErrConflict
	}
	f.ID = uuid.New()
	f.CreatedAt = s.now()
	s.st.feedback[k] = *f
	return nil
}

func (s *Store) ListFeedbackByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.FeedbackRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FeedbackRow
	for k, f := range s.st.feedback {
		if k.quizID != quizID {
			continue
		}
		row := model.FeedbackRow{Feedback: f}
		if u, ok := s.st.users[f.StudentID]; ok {
			row.StudentUsername = u.Username
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ─── Drafts ─────────────────────────────────────────────────────────

func (s *Store) UpsertDrafts(ctx context.Context, attemptID uuid.UUID, subs []model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.attempts[attemptID]
	if !ok || a.IsCompleted() {
		return nil
	}
	m, ok := s.st.drafts[attemptID]
	if !ok {
		m = make(map[uuid.UUID]model.Submission)
		s.st.drafts[attemptID] = m
	}
	for _, sub := range subs {
		m[sub.QuestionID] = sub
	}
	return nil
}

func (s *Store) ListDrafts(ctx context.Context, attemptID uuid.UUID) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Submission
	for _, sub := range s.st.drafts[attemptID] {
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) DeleteDrafts(ctx context.Context, attemptID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.drafts, attemptID)
	return nil
}
