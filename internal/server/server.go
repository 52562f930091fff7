package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/dispatch"
	"backend/internal/escalation"
	"backend/internal/handler"
	"backend/internal/profile"
	"backend/internal/repository"
	"backend/internal/workflow"
)

type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

// Deps are the engine components the HTTP surface exposes.
type Deps struct {
	Store         profile.Store
	Coordinator   *escalation.Coordinator
	Dispatcher    *dispatch.Dispatcher
	Pool          *dispatch.Pool
	Workflow      *workflow.Client
	Prefs         repository.PreferenceRepository
	Notifications repository.NotificationRepository
}

func NewServer(deps Deps, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		logger: logger,
	}

	s.setupRoutes(deps)

	return s
}

func (s *Server) setupRoutes(deps Deps) {
	analyzeHandler := handler.NewAnalyzeHandler(deps.Store, deps.Coordinator, deps.Dispatcher,
		deps.Pool, deps.Workflow, deps.Prefs, s.logger)
	preferenceHandler := handler.NewPreferenceHandler(deps.Prefs, deps.Notifications, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := s.router.Group("/api")
	{
		api.POST("/analyze-event", analyzeHandler.AnalyzeEvent)
		api.GET("/users/:user_id/profile", analyzeHandler.GetProfile)
		api.GET("/users/:user_id/history", analyzeHandler.GetHistory)
		api.GET("/users/:user_id/preferences", preferenceHandler.GetPreferences)
		api.PUT("/users/:user_id/preferences", preferenceHandler.UpdatePreferences)
		api.GET("/users/:user_id/notifications", preferenceHandler.GetNotifications)
	}
}

func (s *Server) Run(addr string) {
	s.logger.Info("Server starting", zap.String("addr", addr))
	if err := s.router.Run(addr); err != nil {
		s.logger.Fatal("Server failed to start", zap.Error(err))
	}
}
