package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/database"
	"github.com/stemsi/quizwizz-backend/internal/handler"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/mailer"
	"github.com/stemsi/quizwizz-backend/internal/repository"
	"github.com/stemsi/quizwizz-backend/internal/router"
	"github.com/stemsi/quizwizz-backend/internal/service"
	"github.com/stemsi/quizwizz-backend/internal/validator"
	"github.com/stemsi/quizwizz-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("mail_enabled", cfg.MailEnabled()).
		Msg("Starting Quizwizz Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	store := repository.NewPGStore(pool)
	drafts := repository.NewRedisDraftCache(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	notifier := service.NewNotificationService(rdb, log)
	authService := service.NewAuthService(cfg, store, log)
	quizService := service.NewQuizService(store, log)
	attemptService := service.NewAttemptService(store, drafts, notifier, log)
	resultService := service.NewResultService(store, notifier, log)
	accessService := service.NewAccessService(store, notifier, cfg.PublicBaseURL, log)
	feedbackService := service.NewFeedbackService(store)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		Quiz:    handler.NewQuizHandler(quizService, accessService, log),
		Result:  handler.NewResultHandler(resultService, log),
		Student: handler.NewStudentHandler(quizService, attemptService, accessService, feedbackService, log),
		WS:      handler.NewWSHandler(attemptService, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(store, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	autosaveWorker := worker.NewAutosaveWorker(store, rdb, log)
	notificationWorker := worker.NewNotificationWorker(rdb, mailer.New(cfg, log), cfg.PublicBaseURL, log)
	scheduler, err := worker.NewScheduler(cfg.DeadLetterReplaySpec, notificationWorker, log)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.DeadLetterReplaySpec).Msg("Invalid dead-letter replay schedule")
	}

	for _, start := range []func(context.Context){autosaveWorker.Start, notificationWorker.Start, scheduler.Start} {
		workers.Add(1)
		go func(start func(context.Context)) {
			defer workers.Done()
			start(workerCtx)
		}(start)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for their queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
