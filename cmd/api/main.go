package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/acme/bulk-caller/internal/api"
	"github.com/acme/bulk-caller/internal/app"
	"github.com/acme/bulk-caller/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", getEnv("CONFIG_FILE", "configs/config.yaml"), "path to configuration file")
	flag.Parse()

	container, err := app.Build(ctx, *configPath)
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer container.Close()

	cfg := container.Config
	lg := container.Logger

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, serviceName, cfg.App.Version)
	if err != nil {
		lg.Fatal("telemetry setup failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			lg.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	if err := container.Preflight(ctx); err != nil {
		lg.Fatal("preflight failed", zap.Error(err))
	}
	if err := container.EnsureTopics(ctx); err != nil {
		lg.Warn("ensure kafka topics failed", zap.Error(err))
	}

	server := api.NewServer(cfg.HTTP, cfg.App.Name, container.HandlerSet())

	lg.Info("starting api server",
		zap.Int("port", cfg.HTTP.Port),
		zap.Bool("dry_run", cfg.Dispatch.DryRun),
		zap.Duration("call_interval", cfg.Dispatch.CallInterval),
		zap.String("run_store", cfg.RunStore.Backend),
	)
	if err := server.Start(ctx); err != nil {
		lg.Error("server terminated", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
