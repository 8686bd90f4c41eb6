package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/repository"
	"github.com/stemsi/quizwizz-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports service health and background queue depth.
type SystemHandler struct {
	store     repository.Store
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. rdb may be nil in tests.
func NewSystemHandler(store repository.Store, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		store:     store,
		rdb:       rdb,
		startTime: time.Now(),
		log:       logger.Component(log, "system_handler"),
	}
}

type healthStatus struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
	Checks     map[string]string `json:"checks"`
	Queues     map[string]int64  `json:"queues,omitempty"`
}

// Health godoc
// GET /health
// Pings PostgreSQL and Redis and reports worker queue lengths.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := healthStatus{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     map[string]string{},
	}

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Postgres health check failed")
		status.Checks["postgres"] = "down"
		status.Status = "degraded"
	} else {
		status.Checks["postgres"] = "up"
	}

	if h.rdb != nil {
		queues, err := h.queueLengths(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("Redis health check failed")
			status.Checks["redis"] = "down"
			status.Status = "degraded"
		} else {
			status.Checks["redis"] = "up"
			status.Queues = queues
		}
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, status)
}

func (h *SystemHandler) queueLengths(ctx context.Context) (map[string]int64, error) {
	keys := []string{
		config.WorkerKey.PersistDraftsQueue,
		config.WorkerKey.NotificationQueue,
		config.WorkerKey.NotificationDeadLetter,
	}
	pipe := h.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.LLen(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(keys))
	for i, k := range keys {
		out[k] = cmds[i].Val()
	}
	return out, nil
}
