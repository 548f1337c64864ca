package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bot_gatekeeper/internal/app/apiapp"
	"bot_gatekeeper/internal/config"
	loginfra "bot_gatekeeper/internal/infra/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := loginfra.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := apiapp.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("create api app", zap.Error(err))
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("api stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("api stopped")
}
