// Package main runs the meeting-rooms HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campusmeet/backend/config"
	"github.com/campusmeet/backend/internal/auth"
	"github.com/campusmeet/backend/internal/bigbluebutton"
	"github.com/campusmeet/backend/internal/logs"
	"github.com/campusmeet/backend/internal/middleware"
	"github.com/campusmeet/backend/internal/realtime"
	"github.com/campusmeet/backend/internal/recordings"
	"github.com/campusmeet/backend/internal/rooms"
	"github.com/campusmeet/backend/internal/session"
	"github.com/campusmeet/backend/internal/view"
	"github.com/campusmeet/backend/internal/worker"
	"github.com/campusmeet/backend/pkg/database"
	"github.com/campusmeet/backend/pkg/queue"
	"github.com/campusmeet/backend/pkg/redis"
	"github.com/campusmeet/backend/pkg/response"
	"github.com/campusmeet/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RecordingsBucket:     cfg.AWS.RecordingsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	meetClient := bigbluebutton.New(cfg.Meet.ServerURL, cfg.Meet.SharedSecret, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Rooms and audit logs
	roomRepo := rooms.NewRepository(pool)
	logRepo := logs.NewRepository(pool)
	logHandler := logs.NewHandler(logRepo, logger)

	// View session cache
	sessionStore := session.NewStore(rdb.Client, time.Duration(cfg.Session.TTLHours)*time.Hour, logger)

	// View controller (join/logout/play)
	viewHandler := view.NewHandler(roomRepo, sessionStore, meetClient, logRepo, cfg.Portal, cfg.Meet, logger)

	// Recordings
	recordingRepo := recordings.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	recordingBroker := recordings.NewBroker(meetClient, recordingRepo, roomRepo, logRepo, hub, jobQueue, logger)
	recordingHandler := recordings.NewHandler(meetClient, recordingRepo, roomRepo, s3Client, logger)
	archiveProcessor := worker.NewArchiveProcessor(recordingRepo, s3Client, jobQueue, logger)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only; for enrolment management)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Room view: join/logout/play dispatch
		api.GET("/rooms/view", viewHandler.Serve)

		// Recordings table
		api.GET("/rooms/:id/recordings", recordingHandler.ListByRoom)
		api.GET("/recordings/:id/download-url", recordingHandler.GenerateDownloadURL)
		api.DELETE("/recordings/:id/archive", middleware.RequireRole("admin"), recordingHandler.DeleteArchive)

		// Recording state broker (instructors only)
		api.POST("/broker/recordings", middleware.RequireRole("admin", "teacher"), recordingBroker.PerformAction)

		// Room audit trail (instructors only)
		api.GET("/rooms/:id/logs", middleware.RequireRole("admin", "teacher"), logHandler.ListByRoom)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (recording archive to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		go archiveProcessor.Run(workerCtx)
		logger.Info("archive worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
