package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	manager := workflow.NewManager(cfg, store, logger)
	stages, err := buildStages(cfg, store, logger)
	if err != nil {
		logger.Error("build pipeline stages", logging.Error(err))
		store.Close()
		return
	}
	manager.ConfigureStages(stages)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	logger.Info("scribed started", slog.String("queue_db", store.Path()))
	<-ctx.Done()
	logger.Info("scribed shutting down")
}
