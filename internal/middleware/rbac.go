package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizwizz-backend/internal/model"
	"github.com/stemsi/quizwizz-backend/internal/response"
)

// RequireTeacher lets only teacher tokens through. Must run after RequireJWT.
func RequireTeacher() gin.HandlerFunc {
	return requireRole(model.RoleTeacher, response.ErrTeacherAccessOnly)
}

// RequireStudent lets only student tokens through. Must run after RequireJWT.
func RequireStudent() gin.HandlerFunc {
	return requireRole(model.RoleStudent, response.ErrStudentAccessOnly)
}

func requireRole(role model.Role, code response.ErrCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.Role != role {
			response.AbortFail(c, http.StatusForbidden, code)
			return
		}
		c.Next()
	}
}
