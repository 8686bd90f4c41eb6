package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/handler"
	"github.com/stemsi/quizwizz-backend/internal/middleware"
	"github.com/stemsi/quizwizz-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Quiz    *handler.QuizHandler
	Result  *handler.ResultHandler
	Student *handler.StudentHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background helpers such as the rate limiter sweep.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinMode != gin.TestMode {
		router.Use(gin.Logger())
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality: 5,
		Skipper: middleware.SkipPaths("/health"),
	}))

	router.GET("/health", handlers.System.Health)

	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, time.Minute)
	passwordLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, time.Minute)
	requireJWT := middleware.RequireJWT(auth)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	public := router.Group("/api/v1")
	{
		public.GET("/quizzes", handlers.Quiz.Search)
		public.GET("/categories", middleware.CacheControl(3600), handlers.Quiz.Categories)

		authGroup := public.Group("/auth")
		authGroup.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		authGroup.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		authGroup.GET("/me", requireJWT, handlers.Auth.Me)
		authGroup.PUT("/me", requireJWT, middleware.NoStore(), handlers.Auth.UpdateMe)
	}

	// ─── 1. Teacher Group ──────────────────────────────────────────────
	teacher := router.Group("/api/v1/teacher")
	teacher.Use(requireJWT, middleware.RequireTeacher(), middleware.NoStore())
	{
		teacher.GET("/dashboard", handlers.Result.TeacherDashboard)

		teacher.POST("/quizzes", handlers.Quiz.Create)
		teacher.GET("/quizzes", handlers.Quiz.ListMine)
		teacher.GET("/quizzes/:quiz_id", handlers.Quiz.Get)
		teacher.PUT("/quizzes/:quiz_id", handlers.Quiz.Update)
		teacher.DELETE("/quizzes/:quiz_id", handlers.Quiz.Delete)
		teacher.PUT("/quizzes/:quiz_id/questions", handlers.Quiz.ReplaceQuestions)
		teacher.POST("/quizzes/:quiz_id/invite", handlers.Quiz.Invite)

		teacher.POST("/quizzes/:quiz_id/release-grades", handlers.Result.ReleaseGrades)
		teacher.GET("/quizzes/:quiz_id/results", handlers.Result.QuizResults)
		teacher.GET("/attempts/:attempt_id", handlers.Result.AttemptResult)
	}

	// ─── 2. Student Group ──────────────────────────────────────────────
	student := router.Group("/api/v1/student")
	student.Use(requireJWT, middleware.RequireStudent(), middleware.NoStore())
	{
		student.GET("/dashboard", handlers.Student.Dashboard)
		student.GET("/performance", handlers.Student.Performance)
		student.GET("/bookmarks", handlers.Student.Bookmarks)

		student.GET("/quizzes/:quiz_id", handlers.Student.GetQuiz)
		student.POST("/quizzes/:quiz_id/password", passwordLimiter.MiddlewareBy(middleware.ByIdentity), handlers.Student.EnterPassword)
		student.POST("/quizzes/:quiz_id/join-link", handlers.Student.JoinByLink)
		student.POST("/quizzes/:quiz_id/attempts", handlers.Student.StartAttempt)
		student.POST("/quizzes/:quiz_id/feedback", handlers.Student.SubmitFeedback)
		student.POST("/quizzes/:quiz_id/bookmark", handlers.Student.ToggleBookmark)

		student.GET("/attempts/:attempt_id/state", handlers.Student.AttemptState)
		student.PUT("/attempts/:attempt_id/answers", handlers.Student.SaveAnswer)
		student.POST("/attempts/:attempt_id/submit", handlers.Student.Submit)
		student.GET("/attempts/:attempt_id/result", handlers.Result.AttemptResult)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	wsGroup := router.Group("/ws/v1/student")
	wsGroup.Use(middleware.RequireWSAuth(auth), middleware.RequireStudent())
	{
		wsGroup.GET("/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	return router
}
