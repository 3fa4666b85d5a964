// Package main runs the background worker that fans event changes out to
// email and push.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventmate/backend/config"
	"github.com/eventmate/backend/internal/emaillog"
	"github.com/eventmate/backend/internal/notifications"
	"github.com/eventmate/backend/internal/userconfig"
	"github.com/eventmate/backend/internal/worker"
	"github.com/eventmate/backend/pkg/database"
	"github.com/eventmate/backend/pkg/mailer"
	"github.com/eventmate/backend/pkg/push"
	"github.com/eventmate/backend/pkg/queue"
	"github.com/eventmate/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	configRepo := userconfig.NewRepository(pool)
	emailLogRepo := emaillog.NewRepository(pool)

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
	dispatcher := notifications.NewDispatcher(smtpSender, pushClient, resolver, composer, emailLogRepo, logger)
	processor := worker.NewChangeProcessor(jobQueue, resolver, dispatcher, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
