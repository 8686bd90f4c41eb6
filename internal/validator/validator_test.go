package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type categoryRequest struct {
	Category string `json:"category" binding:"required,quiz_category"`
}

func bindBody(body string) map[string]string {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req categoryRequest
	return Bind(c, &req)
}

func TestBind_QuizCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Setup()

	assert.Nil(t, bindBody(`{"category":"science"}`))

	fields := bindBody(`{"category":"alchemy"}`)
	assert.Equal(t, "category must be a known quiz category", fields["category"])

	assert.Contains(t, bindBody(`{`), "detail")
}
