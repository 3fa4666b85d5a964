// Package main runs the event platform HTTP server with graceful shutdown.
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

	"github.com/eventmate/backend/config"
	"github.com/eventmate/backend/internal/auth"
	"github.com/eventmate/backend/internal/emaillog"
	"github.com/eventmate/backend/internal/events"
	"github.com/eventmate/backend/internal/invitations"
	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/notifications"
	"github.com/eventmate/backend/internal/userconfig"
	"github.com/eventmate/backend/internal/worker"
	"github.com/eventmate/backend/pkg/database"
	"github.com/eventmate/backend/pkg/mailer"
	"github.com/eventmate/backend/pkg/push"
	"github.com/eventmate/backend/pkg/queue"
	"github.com/eventmate/backend/pkg/redis"
	"github.com/eventmate/backend/pkg/response"
	"github.com/eventmate/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolConfig{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	}, logger)
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
			ImagesBucket:         cfg.AWS.ImagesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth and notification profiles
	authRepo := auth.NewRepository(pool)
	configRepo := userconfig.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, configRepo, jwtService, logger)
	configHandler := userconfig.NewHandler(configRepo)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, authRepo, jobQueue, s3Client, logger)

	// Notification pipeline
	smtpSender := mailer.NewSMTP(mailer.Config{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}, logger)
	pushClient := push.NewClient(push.Config{
		Endpoint:  cfg.Push.Endpoint,
		ServerKey: cfg.Push.ServerKey,
	}, logger)
	composer := notifications.NewEmailComposer(cfg.App.BaseURL)
	resolver := notifications.NewResolver(configRepo, logger)
	emailLogRepo := emaillog.NewRepository(pool)
	dispatcher := notifications.NewDispatcher(smtpSender, pushClient, resolver, composer, emailLogRepo, logger)
	changeProcessor := worker.NewChangeProcessor(jobQueue, resolver, dispatcher, logger)

	// Invitations
	inviteService := invitations.NewService(eventRepo, configRepo, dispatcher, jobQueue, logger)
	inviteHandler := invitations.NewHandler(inviteService)

	emailLogHandler := emaillog.NewHandler(emailLogRepo, eventRepo)

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

	// Compatibility entry: Bearer presence only, identity in the body
	router.POST("/events/invite", inviteHandler.InviteDirect)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/image-upload-url", eventHandler.GenerateImageUploadURL)

		// Invitations
		api.POST("/events/:id/invitations", inviteHandler.Invite)

		// Email delivery history (owner only)
		api.GET("/events/:id/emails", emailLogHandler.ListByEvent)

		// Notification settings
		api.GET("/settings/notifications", configHandler.Get)
		api.PUT("/settings/notifications", configHandler.Update)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process change processor; the standalone worker binary covers
	// deployments that split HTTP and fan-out.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go changeProcessor.Run(workerCtx)

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
