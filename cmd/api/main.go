package main

import (
	"context"
	"log"
	"time"

	"projecthub-chat/internal/auth"
	"projecthub-chat/internal/client"
	"projecthub-chat/internal/config"
	"projecthub-chat/internal/events"
	"projecthub-chat/internal/handler"
	appredis "projecthub-chat/internal/redis"
	"projecthub-chat/internal/repository"
	"projecthub-chat/internal/server"
	"projecthub-chat/internal/service"
	"projecthub-chat/internal/storage"
	"projecthub-chat/internal/websocket"
	"projecthub-chat/pkg/database"
	"projecthub-chat/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	defer func() { _ = l.Logger.Sync() }()

	db, err := database.Connect(cfg)
	if err != nil {
		l.Errorf("Failed to connect to database: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := appredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		l.Errorf("Failed to connect to redis: %v", err)
		return
	}
	defer func() { _ = redisClient.Close() }()

	var s3Client *storage.Client
	if cfg.S3.Bucket != "" {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		s3Client, err = storage.NewClient(initCtx, cfg.S3)
		initCancel()
		if err != nil {
			l.Errorf("Failed to initialize object storage: %v", err)
			return
		}
	}

	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	projectClient := client.NewProjectClient(cfg.Projects)
	broadcaster := events.NewRedisBroadcaster(redisClient, l)

	roomService := service.NewRoomService(roomRepo, messageRepo, l)
	messageService := service.NewMessageService(messageRepo, projectClient, l)
	facade := service.NewChatFacade(roomService, messageService, projectClient, broadcaster, l)

	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret)
	limiter := appredis.NewRateLimiter(redisClient, appredis.RateLimitConfig{
		MessageLimit:  cfg.Limits.MessagesPerMinute,
		MessageWindow: time.Minute,
	})

	hub := websocket.NewHub()
	go hub.Run(ctx)

	bridge := websocket.NewRedisBridge(appredis.NewSubscriber(redisClient), hub)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			l.Errorf("Redis bridge stopped: %v", err)
		}
	}()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Chat:      handler.NewChatHandler(facade),
		Upload:    handler.NewUploadHandler(facade, roomService, s3Client),
		WebSocket: websocket.NewHandler(verifier, facade, hub, l),
	}, verifier, limiter, db)

	if err := srv.Start(); err != nil {
		l.Errorf("Server exited with error: %v", err)
	}
}
