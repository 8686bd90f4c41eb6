package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository"
)

const (
	DraftBatchSize    = 100
	DraftBatchTimeout = 2 * time.Second
	DraftPollTimeout  = 1 * time.Second
)

// AutosaveWorker consumes the draft queue and persists autosaved answers to PostgreSQL,
// so an attempt can be resumed after Redis loses its cache.
type AutosaveWorker struct {
	store repository.Catalog
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(store repository.Catalog, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		store: store,
		rdb:   rdb,
		log:   logger.Component(log, "autosave_worker"),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AutosaveWorker started")

	batch := make([]model.AttemptDraftJob, 0, DraftBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= DraftBatchSize || time.Since(lastFlush) >= DraftBatchTimeout) {
			w.flush(context.WithoutCancel(ctx), batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining drafts...")
			w.flush(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("AutosaveWorker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, DraftPollTimeout, config.WorkerKey.PersistDraftsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var job model.AttemptDraftJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid draft payload")
				continue
			}
			batch = append(batch, job)
		}
	}
}

// groupDrafts collapses a batch into one submission per attempt and question.
// Later jobs win, matching the order the student saved them in.
func groupDrafts(batch []model.AttemptDraftJob) map[uuid.UUID][]model.Submission {
	latest := make(map[uuid.UUID]map[uuid.UUID]int)
	grouped := make(map[uuid.UUID][]model.Submission)
	for _, job := range batch {
		idx, ok := latest[job.AttemptID]
		if !ok {
			idx = make(map[uuid.UUID]int)
			latest[job.AttemptID] = idx
		}
		if i, seen := idx[job.Submission.QuestionID]; seen {
			grouped[job.AttemptID][i] = job.Submission
			continue
		}
		idx[job.Submission.QuestionID] = len(grouped[job.AttemptID])
		grouped[job.AttemptID] = append(grouped[job.AttemptID], job.Submission)
	}
	return grouped
}

func (w *AutosaveWorker) flush(ctx context.Context, batch []model.AttemptDraftJob) {
	if len(batch) == 0 {
		return
	}
	for attemptID, subs := range groupDrafts(batch) {
		if err := w.store.UpsertDrafts(ctx, attemptID, subs); err != nil {
			w.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Persist drafts failed, requeueing")
			w.requeue(ctx, attemptID, subs)
		}
	}
}

func (w *AutosaveWorker) requeue(ctx context.Context, attemptID uuid.UUID, subs []model.Submission) {
	pipe := w.rdb.Pipeline()
	for _, sub := range subs {
		raw, err := json.Marshal(model.AttemptDraftJob{AttemptID: attemptID, Submission: sub})
		if err != nil {
			continue
		}
		pipe.RPush(ctx, config.WorkerKey.PersistDraftsQueue, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("Requeue drafts failed")
	}
}

// drain persists whatever is still queued before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	var batch []model.AttemptDraftJob
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistDraftsQueue).Result()
		if err != nil {
			break
		}
		var job model.AttemptDraftJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		batch = append(batch, job)
	}
	if len(batch) == 0 {
		return
	}
	w.flush(ctx, batch)
	w.log.Info().Int("count", len(batch)).Msg("Drained remaining drafts")
}
