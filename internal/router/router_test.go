package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/handler"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/repository/memstore"
	"github.com/stemsi/quizwizz-backend/internal/service"
	"github.com/stemsi/quizwizz-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (o *outbox) Dispatch(ctx context.Context, n model.Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, n)
}

type api struct {
	t      *testing.T
	engine *gin.Engine
	outbox *outbox
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	cfg := &config.Config{
		GinMode:       gin.TestMode,
		JWTSecret:     "router-test",
		JWTExpiry:     time.Hour,
		BcryptCost:    4,
		AuthRateLimit: 1000,
		PublicBaseURL: "http://quiz.test",
	}
	validator.Setup()

	store := memstore.New()
	drafts := memstore.NewDraftCache()
	out := &outbox{}

	authService := service.NewAuthService(cfg, store, log)
	quizService := service.NewQuizService(store, log)
	attemptService := service.NewAttemptService(store, drafts, out, log)
	resultService := service.NewResultService(store, out, log)
	accessService := service.NewAccessService(store, out, cfg.PublicBaseURL, log)
	feedbackService := service.NewFeedbackService(store)

	handlers := &Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		Quiz:    handler.NewQuizHandler(quizService, accessService, log),
		Result:  handler.NewResultHandler(resultService, log),
		Student: handler.NewStudentHandler(quizService, attemptService, accessService, feedbackService, log),
		WS:      handler.NewWSHandler(attemptService, log, nil),
		System:  handler.NewSystemHandler(store, nil, log),
	}
	return &api{t: t, engine: SetupRouter(ctx, authService, handlers, cfg), outbox: out}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (a *api) call(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *api) register(username string, role model.Role) string {
	a.t.Helper()
	code, env := a.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username, "email": username + "@example.com", "password": "secret123", "role": role,
	})
	require.Equal(a.t, http.StatusCreated, code)
	var res model.LoginResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestQuizLifecycle(t *testing.T) {
	a := newAPI(t)
	teacher := a.register("tess", model.RoleTeacher)
	student := a.register("sam", model.RoleStudent)

	code, env := a.call(http.MethodPost, "/api/v1/teacher/quizzes", teacher, gin.H{
		"title": "Capitals", "category": "geography", "max_attempts": 1,
		"questions": []gin.H{
			{"text": "Capital of Italy?", "question_type": "mcq", "points": 2, "order_num": 1,
				"options": []gin.H{{"text": "Rome", "is_correct": true}, {"text": "Milan"}}},
			{"text": "Capital of France?", "question_type": "descriptive", "points": 3, "order_num": 2,
				"correct_answer": "Paris"},
		},
	})
	require.Equal(t, http.StatusCreated, code)
	created := decode[struct {
		Quiz model.QuizWithQuestions `json:"quiz"`
		Link string                  `json:"link"`
	}](t, env)
	quiz := created.Quiz
	assert.Equal(t, "http://quiz.test/quizzes/"+quiz.ID.String(), created.Link)

	// Students never reach teacher routes.
	code, _ = a.call(http.MethodGet, "/api/v1/teacher/dashboard", student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.call(http.MethodPost, "/api/v1/student/quizzes/"+quiz.ID.String()+"/attempts", student, nil)
	require.Equal(t, http.StatusCreated, code)
	started := decode[struct {
		AttemptID string `json:"attempt_id"`
	}](t, env)

	code, _ = a.call(http.MethodPost, "/api/v1/student/quizzes/"+quiz.ID.String()+"/attempts", student, nil)
	assert.Equal(t, http.StatusOK, code, "second acquire resumes")

	attemptPath := "/api/v1/student/attempts/" + started.AttemptID
	rome := quiz.Questions[0].Options[0].ID
	code, _ = a.call(http.MethodPut, attemptPath+"/answers", student, gin.H{
		"question_id": quiz.Questions[0].ID, "option_id": rome,
	})
	require.Equal(t, http.StatusOK, code)

	code, env = a.call(http.MethodPost, attemptPath+"/submit", student, gin.H{
		"answers": []gin.H{{"question_id": quiz.Questions[1].ID, "text": " paris "}},
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "score")

	code, env = a.call(http.MethodPost, attemptPath+"/submit", student, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_COMPLETED", env.Error.Code)

	code, env = a.call(http.MethodGet, attemptPath+"/result", student, nil)
	require.Equal(t, http.StatusOK, code)
	hidden := decode[model.AttemptResult](t, env)
	assert.Nil(t, hidden.Score)

	code, env = a.call(http.MethodGet, "/api/v1/teacher/attempts/"+started.AttemptID, teacher, nil)
	require.Equal(t, http.StatusOK, code)
	full := decode[model.AttemptResult](t, env)
	require.NotNil(t, full.Score)
	assert.Equal(t, 5, *full.Score)

	code, env = a.call(http.MethodPost, "/api/v1/teacher/quizzes/"+quiz.ID.String()+"/release-grades", teacher, nil)
	require.Equal(t, http.StatusOK, code)
	release := decode[struct {
		Changed  bool `json:"changed"`
		Notified int  `json:"notified"`
	}](t, env)
	assert.True(t, release.Changed)
	assert.Equal(t, 1, release.Notified)

	code, env = a.call(http.MethodPost, "/api/v1/teacher/quizzes/"+quiz.ID.String()+"/release-grades", teacher, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[struct {
		Changed bool `json:"changed"`
	}](t, env).Changed)

	code, env = a.call(http.MethodGet, attemptPath+"/result", student, nil)
	require.Equal(t, http.StatusOK, code)
	visible := decode[model.AttemptResult](t, env)
	require.NotNil(t, visible.Score)
	assert.Equal(t, 5, *visible.Score)
	assert.InDelta(t, 100.0, *visible.Percentage, 1e-9)

	// Released quizzes accept no new attempts.
	code, env = a.call(http.MethodPost, "/api/v1/student/quizzes/"+quiz.ID.String()+"/attempts", student, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "GRADES_ALREADY_RELEASED", env.Error.Code)

	kinds := make([]model.NotificationKind, 0, len(a.outbox.sent))
	for _, n := range a.outbox.sent {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []model.NotificationKind{model.NotificationSubmissionReceived, model.NotificationGradesReleased}, kinds)
}

func TestValidationAndAuthErrors(t *testing.T) {
	a := newAPI(t)
	teacher := a.register("tess", model.RoleTeacher)

	code, env := a.call(http.MethodPost, "/api/v1/teacher/quizzes", teacher, gin.H{
		"title": "Bad", "category": "alchemy",
		"questions": []gin.H{{"text": "x", "question_type": "descriptive", "points": 1, "correct_answer": "y"}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env = a.call(http.MethodPost, "/api/v1/teacher/quizzes", teacher, gin.H{
		"title": "Bad", "category": "science",
		"questions": []gin.H{{"text": "x", "question_type": "mcq", "points": 1,
			"options": []gin.H{{"text": "only", "is_correct": true}}}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_QUESTION", env.Error.Code)

	code, env = a.call(http.MethodGet, "/api/v1/teacher/quizzes/not-a-uuid", teacher, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	code, env = a.call(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REQUIRED", env.Error.Code)

	code, env = a.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "tess", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	code, env = a.call(http.MethodPut, "/api/v1/auth/me", teacher, gin.H{"username": "no spaces allowed"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env = a.call(http.MethodPut, "/api/v1/auth/me", teacher, gin.H{"username": "tessa", "bio": "geography teacher"})
	require.Equal(t, http.StatusOK, code)
	me := decode[model.User](t, env)
	assert.Equal(t, "tessa", me.Username)
	assert.Equal(t, "geography teacher", me.Bio)

	code, _ = a.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}
