package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"installerpro/internal/cli"
	"installerpro/internal/core"
	"installerpro/internal/events"
	apphttp "installerpro/internal/http"
	"installerpro/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting installerpro")

	dict := cli.OpenDictionary(logger, cfg)
	defer dict.Close()

	// Change feed is optional; without AMQP mutations are only persisted
	// locally and the backup worker runs on its periodic timer alone.
	var publisher store.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Change feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Change feed disabled, no AMQP_URL provided")
	}

	st, err := store.Open(context.Background(), dict, store.Options{
		CodePolicy:        cfg.CodePolicy,
		RequireClientName: cfg.RequireClientName,
		Rollover:          cfg.RolloverMode,
	}, publisher)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, cfg.DailyTotalPolicy, cfg.RequireClientName)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Server listening",
		"port", cfg.Port,
		"backend", cfg.Backend,
		"technician_id", st.Technician().ID,
		"period", core.Today().Period())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
