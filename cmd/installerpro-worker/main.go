package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"installerpro/internal/cli"
	"installerpro/internal/events"
	"installerpro/internal/store"
	"installerpro/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting installerpro-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	dict := cli.OpenDictionary(logger, cfg)
	defer dict.Close()

	// The worker only reads, so it opens the store without a publisher;
	// republishing its own reads would loop the feed.
	st, err := store.Open(context.Background(), dict, store.Options{
		CodePolicy:        cfg.CodePolicy,
		RequireClientName: cfg.RequireClientName,
		Rollover:          cfg.RolloverMode,
	}, nil)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)
		os.Exit(1)
	}

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	bw := worker.NewBackupWorker(st, cfg.BackupDir, cfg.BackupDebounce, cfg.BackupInterval, cfg.BackupKeep)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Take one snapshot on startup so a fresh deployment has a backup
	// before any change arrives.
	if err := bw.Snapshot(ctx); err != nil {
		logger.Error("Startup snapshot failed", "error", err)
	}

	go func() {
		if err := bw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Backup worker stopped", "error", err)
			cancel()
		}
	}()

	go func() {
		if err := client.ConsumeChanges(ctx, bw.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()

	// Final snapshot so nothing received before shutdown is lost.
	snapCtx, snapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer snapCancel()
	if err := bw.Snapshot(snapCtx); err != nil {
		logger.Error("Final snapshot failed", "error", err)
	}

	logger.Info("Worker stopped gracefully")
}
