package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/service"
	"github.com/stretchr/testify/assert"
)

type stubValidator map[string]*service.Claims

func (s stubValidator) ValidateToken(tokenStr string) (*service.Claims, error) {
	if c, ok := s[tokenStr]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := stubValidator{
		"teacher": {UserID: 1, Role: model.RoleTeacher},
		"student": {UserID: 2, Role: model.RoleStudent},
	}
	r := gin.New()
	ok := func(c *gin.Context) {
		id, _ := GetIdentity(c)
		c.String(http.StatusOK, string(id.Role))
	}
	r.GET("/teacher", RequireJWT(tokens), RequireTeacher(), ok)
	r.GET("/student", RequireJWT(tokens), RequireStudent(), ok)
	r.GET("/ws", RequireWSAuth(tokens), ok)
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusUnauthorized, do(r, "/teacher", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/teacher", "Bearer nope").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/teacher", "Bearer student").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/student", "Bearer teacher").Code)

	w := do(r, "/teacher", "Bearer teacher")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/ws", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/ws?token=student", "").Code)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Hour)
	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, do(r, "/", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/", "").Code)
	w := do(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_RefillsPerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 1, time.Minute)
	rl.now = func() time.Time { return now }

	_, ok := rl.take("user:1")
	assert.True(t, ok)
	wait, ok := rl.take("user:1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	_, ok = rl.take("user:2")
	assert.True(t, ok, "buckets are independent")

	now = now.Add(61 * time.Second)
	_, ok = rl.take("user:1")
	assert.True(t, ok)
}

func TestAcceptsBrotli(t *testing.T) {
	assert.True(t, acceptsBrotli("gzip, br"))
	assert.True(t, acceptsBrotli("br;q=0.5"))
	assert.False(t, acceptsBrotli("br;q=0"))
	assert.False(t, acceptsBrotli("gzip, deflate"))
	assert.False(t, acceptsBrotli(""))
}

func TestBrotli_CompressesLargeBodiesOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64, Skipper: SkipPaths("/health")}))
	large := strings.Repeat("quiz ", 100)
	r.GET("/large", func(c *gin.Context) {
		// Two writes: the second lands after compression started.
		c.String(http.StatusOK, large)
		c.String(http.StatusOK, "tail")
	})
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, large) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "br")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/large")
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	assert.NoError(t, err)
	assert.Equal(t, large+"tail", string(body))

	w = get("/small")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = get("/health")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}
