package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkrylov/coinledger/internal/config"
	"github.com/dkrylov/coinledger/internal/container"
	"github.com/dkrylov/coinledger/internal/infrastructure/telemetry"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs", "Path to the directory holding config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath, "config")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	c, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	logger := c.Logger
	slog.SetDefault(logger)
	logger.Info("starting coinledger",
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("address", cfg.Server.Address()))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- c.Server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
			c.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx := context.Background()
	if err := c.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
	}
	c.Close()

	logger.Info("coinledger stopped")
}
