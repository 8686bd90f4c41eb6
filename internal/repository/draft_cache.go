package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// DraftCache holds autosaved answers of in-progress attempts.
type DraftCache interface {
	// Save stores one draft and queues it for persistence to PostgreSQL.
	Save(ctx context.Context, attemptID uuid.UUID, sub model.Submission) error
	// Load returns the cached drafts keyed by question ID. A nil map with no error means a cache miss.
	Load(ctx context.Context, attemptID uuid.UUID) (map[uuid.UUID]model.Submission, error)
	// Warm refills the cache from persisted drafts.
	Warm(ctx context.Context, attemptID uuid.UUID, subs []model.Submission) error
	Clear(ctx context.Context, attemptID uuid.UUID) error
}

// RedisDraftCache implements DraftCache with one Redis hash per attempt.
type RedisDraftCache struct {
	rdb *redis.Client
}

// NewRedisDraftCache creates a new RedisDraftCache.
func NewRedisDraftCache(rdb *redis.Client) *RedisDraftCache {
	return &RedisDraftCache{rdb: rdb}
}

// Save implements DraftCache. The hash write and the queue push go through one pipeline.
func (c *RedisDraftCache) Save(ctx context.Context, attemptID uuid.UUID, sub model.Submission) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	job, err := json.Marshal(model.AttemptDraftJob{AttemptID: attemptID, Submission: sub})
	if err != nil {
		return fmt.Errorf("marshal draft job: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, config.CacheKey.AttemptDraftKey(attemptID.String()), sub.QuestionID.String(), raw)
	pipe.RPush(ctx, config.WorkerKey.PersistDraftsQueue, job)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Load implements DraftCache.
func (c *RedisDraftCache) Load(ctx context.Context, attemptID uuid.UUID) (map[uuid.UUID]model.Submission, error) {
	fields, err := c.rdb.HGetAll(ctx, config.CacheKey.AttemptDraftKey(attemptID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load drafts: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	drafts := make(map[uuid.UUID]model.Submission, len(fields))
	for _, raw := range fields {
		var sub model.Submission
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			continue
		}
		drafts[sub.QuestionID] = sub
	}
	return drafts, nil
}

// Warm implements DraftCache.
func (c *RedisDraftCache) Warm(ctx context.Context, attemptID uuid.UUID, subs []model.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(subs))
	for _, sub := range subs {
		raw, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("marshal draft: %w", err)
		}
		values[sub.QuestionID.String()] = raw
	}
	return c.rdb.HSet(ctx, config.CacheKey.AttemptDraftKey(attemptID.String()), values).Err()
}

// Clear implements DraftCache.
func (c *RedisDraftCache) Clear(ctx context.Context, attemptID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.AttemptDraftKey(attemptID.String())).Err()
}
