package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler registers the dead-letter replay job under spec.
func NewScheduler(spec string, notifications *NotificationWorker, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		log:  logger.Component(log, "scheduler"),
	}
	_, err := s.cron.AddFunc(spec, func() {
		n := notifications.ReplayDeadLetters(context.Background())
		s.log.Debug().Int("replayed", n).Msg("Dead-letter replay finished")
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the scheduler until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}
