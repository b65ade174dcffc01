package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ncecere/model_directory/internal/app"
	"github.com/ncecere/model_directory/internal/config"
	"github.com/ncecere/model_directory/internal/httpserver"
	"github.com/ncecere/model_directory/internal/observability"
	"github.com/ncecere/model_directory/internal/redisclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	redisClient := redisclient.New(cfg.Redis)
	if redisClient != nil {
		if err := redisclient.Ping(ctx, redisClient); err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer redisClient.Close()
	}

	container, err := app.NewContainer(ctx, cfg, redisClient, logger)
	if err != nil {
		log.Fatalf("build container: %v", err)
	}
	container.Analytics.Initialize(ctx)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Analytics.DeliveryTimeout+time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	server, err := httpserver.New(container)
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}

	logger.Info("model directory listening", slog.String("addr", cfg.Server.ListenAddr))
	if err := server.Listen(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server stopped: %v", err)
	}
}
