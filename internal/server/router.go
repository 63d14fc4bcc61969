package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nisschay/Edu-Rag/internal/http/handlers"
	"github.com/nisschay/Edu-Rag/internal/http/middleware"
)

type RouterConfig struct {
	AllowOrigins []string

	HealthHandler  *handlers.HealthHandler
	AuthHandler    *handlers.AuthHandler
	SubjectHandler *handlers.SubjectHandler
	UnitHandler    *handlers.UnitHandler
	TopicHandler   *handlers.TopicHandler
	FileHandler    *handlers.FileHandler
	SummaryHandler *handlers.SummaryHandler
	ChatHandler    *handlers.ChatHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.Register)
	router.POST("/api/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// User
	protected.GET("/me", cfg.AuthHandler.Me)
	// Subjects
	protected.POST("/subjects", cfg.SubjectHandler.Create)
	protected.GET("/subjects", cfg.SubjectHandler.List)
	protected.GET("/subjects/:id", cfg.SubjectHandler.Get)
	protected.DELETE("/subjects/:id", cfg.SubjectHandler.Delete)
	// Units
	protected.POST("/subjects/:id/units", cfg.UnitHandler.Create)
	protected.GET("/subjects/:id/units", cfg.UnitHandler.List)
	protected.GET("/units/:id/status", cfg.UnitHandler.Status)
	protected.DELETE("/units/:id", cfg.UnitHandler.Delete)
	// Topics
	protected.POST("/units/:id/topics", cfg.TopicHandler.Create)
	protected.GET("/units/:id/topics", cfg.TopicHandler.List)
	protected.DELETE("/topics/:id", cfg.TopicHandler.Delete)
	// Files
	protected.POST("/topics/:id/files", cfg.FileHandler.Upload)
	protected.GET("/topics/:id/files", cfg.FileHandler.ListByTopic)
	protected.GET("/files/:id", cfg.FileHandler.Get)
	// Summaries
	protected.GET("/topics/:id/summary", cfg.SummaryHandler.GetTopicSummary)
	protected.POST("/topics/:id/summary/regenerate", cfg.SummaryHandler.RegenerateTopicSummary)
	protected.GET("/units/:id/summary", cfg.SummaryHandler.GetUnitSummary)
	protected.POST("/units/:id/summary/regenerate", cfg.SummaryHandler.RegenerateUnitSummary)
	// Chat
	protected.POST("/chat", cfg.ChatHandler.Chat)
	protected.POST("/chat/flexible", cfg.ChatHandler.ChatFlexible)

	return router
}
