package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"svend/internal/amqp"
	"svend/internal/cli"
	"svend/internal/export"
	"svend/internal/log"
	"svend/internal/planner"
	"svend/internal/services"
	"svend/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Setup structured logging
	logger := cli.SetupLogger()

	logger.Info("Starting svend-worker")

	// Load and validate configuration
	cfg := cli.LoadAndValidateConfig(logger)

	// Initialize SQLite repository (runs migrations)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// The worker consumes recompute requests from the broker; without
	// one it has nothing to do.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Initialize the plan export backend (sheets, memory or disabled)
	exportConfig, err := export.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	factory := export.NewFactory(logger.Logger)
	exporterResult, err := factory.CreateExporter(context.Background(), exportConfig)
	if err != nil {
		logger.Error("Failed to initialize plan exporter", log.FieldError, err.Error())
		os.Exit(1)
	}
	if exporterResult.Cleanup != nil {
		defer func() {
			if err := exporterResult.Cleanup(); err != nil {
				logger.Error("Exporter cleanup failed", log.FieldError, err.Error())
			}
		}()
	}

	// The service publishes scheduled recompute requests back through the
	// broker so they flow through the same consumer as manual ones.
	pl := planner.New(logger.WithComponent(log.ComponentPlanner))
	service := services.NewRecommendationService(repo, pl, amqpClient)
	defer service.Close()

	recomputeWorker := worker.NewRecomputeWorker(service, exporterResult.Exporter)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rebuild the plan once at startup so a fresh deployment serves
	// recommendations before the first scheduled run.
	if err := recomputeWorker.StartupRecompute(ctx); err != nil {
		logger.Error("Startup recompute failed", log.FieldError, err.Error())
		// Don't exit - the scheduler will retry
	}

	// Start message consumption
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeRecompute(gctx, func(msg *amqp.RecommendationRecomputeMessage) error {
			return recomputeWorker.HandleRecomputeMessage(gctx, msg)
		})
	})

	// Periodic recompute requests so the plan tracks new transactions
	// even when nobody asks for a refresh.
	scheduler := services.NewRecomputeScheduler(service, services.RecomputeSchedulerConfig{
		Interval:   cfg.RecomputeInterval,
		RunOnStart: false,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start recompute scheduler", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Message consumption ended, shutting down")
	}

	// Graceful shutdown
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Error("Scheduler stop failed", log.FieldError, err.Error())
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
	}

	logger.Info("Worker stopped gracefully")
}
