package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
)

// Dispatcher hands a notification off for asynchronous delivery and returns immediately.
// Implementations never report failures to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification)
}

// NotificationService queues notifications on a Redis list for the notification worker.
type NotificationService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(rdb *redis.Client, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		rdb: rdb,
		log: logger.Component(log, "notification_service"),
	}
}

// Dispatch implements Dispatcher. Errors are logged and dropped.
func (s *NotificationService) Dispatch(ctx context.Context, n model.Notification) {
	if n.Recipient == "" {
		return
	}
	raw, err := json.Marshal(n)
	if err != nil {
		s.log.Error().Err(err).Str("kind", string(n.Kind)).Msg("Marshal notification failed")
		return
	}
	// Detach from request cancellation so a client disconnect does not drop the message.
	if err := s.rdb.RPush(context.WithoutCancel(ctx), config.WorkerKey.NotificationQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).
			Str("kind", string(n.Kind)).
			Str("quiz_id", n.QuizID.String()).
			Msg("Queue notification failed")
		return
	}
	s.log.Debug().Str("kind", string(n.Kind)).Str("quiz_id", n.QuizID.String()).Msg("Notification queued")
}
