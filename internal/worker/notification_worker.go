package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/mailer"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

const (
	NotifyBatchSize    = 20
	NotifyBatchTimeout = 2 * time.Second
	NotifyPollTimeout  = 1 * time.Second
	NotifySendTimeout  = 10 * time.Second
)

// NotificationWorker delivers queued notifications by email. Failed deliveries are
// requeued; after model.MaxNotificationTries they move to the dead-letter list.
type NotificationWorker struct {
	rdb     *redis.Client
	mailer  mailer.Mailer
	baseURL string
	log     zerolog.Logger
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(rdb *redis.Client, m mailer.Mailer, baseURL string, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		rdb:     rdb,
		mailer:  m,
		baseURL: baseURL,
		log:     logger.Component(log, "notification_worker"),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotificationWorker started")

	batch := make([]model.Notification, 0, NotifyBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= NotifyBatchSize || time.Since(lastFlush) >= NotifyBatchTimeout) {
			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			// Undelivered items go back to the queue for the next run.
			w.requeueAll(context.Background(), batch)
			w.log.Info().Msg("NotificationWorker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, NotifyPollTimeout, config.WorkerKey.NotificationQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var n model.Notification
			if err := json.Unmarshal([]byte(item[1]), &n); err != nil {
				w.log.Error().Err(err).Msg("Invalid notification payload")
				continue
			}
			batch = append(batch, n)
		}
	}
}

// flush delivers a batch already taken off the queue. Shutdown must not turn
// it into failed deliveries, so it ignores cancellation of ctx.
func (w *NotificationWorker) flush(ctx context.Context, batch []model.Notification) {
	ctx = context.WithoutCancel(ctx)
	for _, n := range batch {
		err := w.deliver(ctx, n)
		next, queue := route(n, err)
		if queue == "" {
			continue
		}
		w.log.Warn().Err(err).
			Str("kind", string(n.Kind)).
			Str("recipient", n.Recipient).
			Int("tries", next.Tries).
			Str("queue", queue).
			Msg("Notification delivery failed")
		w.push(ctx, queue, next)
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, n model.Notification) error {
	msg, err := mailer.Compose(n, w.baseURL)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, NotifySendTimeout)
	defer cancel()
	return w.mailer.Send(sendCtx, msg)
}

// route decides where a notification goes after a delivery attempt. An empty
// queue name means it was delivered.
func route(n model.Notification, sendErr error) (model.Notification, string) {
	if sendErr == nil {
		return n, ""
	}
	n.Tries++
	if n.Tries >= model.MaxNotificationTries {
		return n, config.WorkerKey.NotificationDeadLetter
	}
	return n, config.WorkerKey.NotificationQueue
}

func (w *NotificationWorker) push(ctx context.Context, queue string, n model.Notification) {
	raw, err := json.Marshal(n)
	if err != nil {
		w.log.Error().Err(err).Msg("Marshal notification")
		return
	}
	if err := w.rdb.RPush(ctx, queue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("queue", queue).Msg("Push notification failed")
	}
}

func (w *NotificationWorker) requeueAll(ctx context.Context, batch []model.Notification) {
	for _, n := range batch {
		w.push(ctx, config.WorkerKey.NotificationQueue, n)
	}
}

// ReplayDeadLetters moves every dead-lettered notification back to the queue with
// a fresh try counter and returns how many were moved.
func (w *NotificationWorker) ReplayDeadLetters(ctx context.Context) int {
	moved := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.NotificationDeadLetter).Result()
		if err != nil {
			if err != redis.Nil {
				w.log.Error().Err(err).Msg("LPop dead letter")
			}
			break
		}
		var n model.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			w.log.Error().Err(err).Msg("Dropping invalid dead letter")
			continue
		}
		n.Tries = 0
		w.push(ctx, config.WorkerKey.NotificationQueue, n)
		moved++
	}
	if moved > 0 {
		w.log.Info().Int("count", moved).Msg("Replayed dead-lettered notifications")
	}
	return moved
}
