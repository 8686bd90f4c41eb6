package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
)

// DraftCache is an in-memory repository.DraftCache. Saved drafts are also
// recorded in Queued so tests can check what would be persisted.
type DraftCache struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]map[uuid.UUID]model.Submission
	Queued []model.AttemptDraftJob
}

// NewDraftCache creates an empty DraftCache.
func NewDraftCache() *DraftCache {
	return &DraftCache{drafts: make(map[uuid.UUID]map[uuid.UUID]model.Submission)}
}

var _ repository.DraftCache = (*DraftCache)(nil)

func (c *DraftCache) Save(ctx context.Context, attemptID uuid.UUID, sub model.Submission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.drafts[attemptID]
	if !ok {
		m = make(map[uuid.UUID]model.Submission)
		c.drafts[attemptID] = m
	}
	m[sub.QuestionID] = sub
	c.Queued = append(c.Queued, model.AttemptDraftJob{AttemptID: attemptID, Submission: sub})
	return nil
}

func (c *DraftCache) Load(ctx context.Context, attemptID uuid.UUID) (map[uuid.UUID]model.Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.drafts[attemptID]
	if !ok || len(m) == 0 {
		return nil, nil
	}
	out := make(map[uuid.UUID]model.Submission, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

func (c *DraftCache) Warm(ctx context.Context, attemptID uuid.UUID, subs []model.Submission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.drafts[attemptID]
	if !ok {
		m = make(map[uuid.UUID]model.Submission)
		c.drafts[attemptID] = m
	}
	for _, sub := range subs {
		m[sub.QuestionID] = sub
	}
	return nil
}

func (c *DraftCache) Clear(ctx context.Context, attemptID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, attemptID)
	return nil
}
