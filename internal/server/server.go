package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projecthub-chat/internal/auth"
	"projecthub-chat/internal/config"
	"projecthub-chat/internal/handler"
	"projecthub-chat/internal/middleware"
	appredis "projecthub-chat/internal/redis"
	"projecthub-chat/internal/transport/httpdto"
	"projecthub-chat/internal/websocket"
	"projecthub-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	Upload    *handler.UploadHandler
	WebSocket *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.Server.Environment == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Environment == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, verifier *auth.TokenVerifier, limiter *appredis.RateLimiter, db *gorm.DB) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	s.engine.GET("/ws", handlers.WebSocket.Connect)

	authed := middleware.AuthMiddleware(verifier)

	chat := s.engine.Group("/v1/projects/:projectId/chat", authed)
	{
		chat.GET("/room", handlers.Chat.RoomInfo)
		chat.POST("/room/archive", handlers.Chat.Archive)
		chat.POST("/room/unarchive", handlers.Chat.Unarchive)
		chat.PUT("/participants", handlers.Chat.SyncParticipants)

		chat.GET("/messages", handlers.Chat.List)
		chat.POST("/messages", middleware.MessageRateLimitMiddleware(limiter), handlers.Chat.Send)
		chat.PUT("/messages/:id", handlers.Chat.Edit)
		chat.DELETE("/messages/:id", handlers.Chat.Delete)
		chat.POST("/messages/:id/reactions", handlers.Chat.React)
		chat.POST("/messages/:id/read", handlers.Chat.MarkRead)
		chat.POST("/messages/read-all", handlers.Chat.MarkAllRead)

		chat.POST("/uploads", handlers.Upload.Create)
	}
}

func (s *Server) Start() error {
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Error in starting the server: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	s.logger.Infof("Server is running on :%s", s.config.Server.Port)

	<-quit

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
