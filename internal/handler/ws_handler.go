package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/logger"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/response"
	"github.com/stemsi/quizwizz-backend/internal/service"
	ws "github.com/stemsi/quizwizz-backend/internal/websocket"
)

const wsActionTimeout = 10 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams autosave and submission of an attempt over a WebSocket.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
	now            func() time.Time
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            logger.Component(log, "ws_handler"),
		upgrader:       buildUpgrader(allowedOrigins),
		now:            time.Now,
	}
}

// AttemptStream godoc
// WS /ws/v1/student/attempts/:attempt_id/stream?token=...
// Actions: autosave, submit, ping. The stream closes after a successful submit.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	// Reject foreign or finished attempts before upgrading so the client gets a plain HTTP error.
	if _, err := h.attemptService.AttemptState(c.Request.Context(), id, attemptID, h.now()); err != nil {
		failService(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", id.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, id, attemptID, &msg)
		case ws.ActionSubmit:
			if h.handleSubmit(conn, wsLog, id, attemptID, &msg) {
				return
			}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, response.ErrInvalidPayload)
		}
	}
}

func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, id model.Identity, attemptID uuid.UUID, msg *ws.RequestPayload) {
	if msg.QuestionID == uuid.Nil {
		ws.WriteError(conn, response.ErrValidation)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsActionTimeout)
	defer cancel()

	if err := h.attemptService.SaveDraft(ctx, id, attemptID, msg.Submission()); err != nil {
		_, code := mapServiceError(err)
		if code == response.ErrInternal {
			wsLog.Error().Err(err).Msg("Autosave failed")
		}
		ws.WriteError(conn, code)
		return
	}
	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: msg.QuestionID})
}

// handleSubmit completes the attempt and reports whether the stream should close.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, id model.Identity, attemptID uuid.UUID, msg *ws.RequestPayload) bool {
	ctx, cancel := context.WithTimeout(context.Background(), wsActionTimeout)
	defer cancel()

	attempt, err := h.attemptService.CompleteAttempt(ctx, id, attemptID, msg.Answers, h.now())
	if err != nil {
		_, code := mapServiceError(err)
		if code == response.ErrInternal {
			wsLog.Error().Err(err).Msg("Submit failed")
		}
		ws.WriteError(conn, code)
		// These leave nothing more to do on this attempt.
		switch code {
		case response.ErrAlreadyCompleted, response.ErrQuizClosed, response.ErrGradesAlreadyReleased:
			return true
		}
		return false
	}

	wsLog.Info().Msg("Attempt submitted")
	ws.WriteTyped(conn, ws.CompletedResponse{
		Event:     ws.EventCompleted,
		AttemptID: attempt.ID,
		Status:    attempt.Status(),
	})
	return true
}
