package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(1, 12, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)

	p = NewPagination(3, 12, 25)
	assert.False(t, p.HasNext)

	p = NewPagination(1, 12, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrNotFound) })

	t.Run("echoes a valid caller ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "trace-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "trace-123", body.Metadata.RequestID)
		require.NotNil(t, body.Error)
		assert.Equal(t, ErrNotFound, body.Error.Code)
	})

	t.Run("replaces an oversized ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", 200))
		r.ServeHTTP(w, req)

		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})
}
