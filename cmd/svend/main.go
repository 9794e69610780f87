package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"svend/internal/amqp"
	"svend/internal/cli"
	apphttp "svend/internal/http"
	"svend/internal/log"
	"svend/internal/planner"
	"svend/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Setup structured logging
	logger := cli.SetupLogger()

	// Load and validate configuration
	cfg := cli.LoadAndValidateConfig(logger)

	// Initialize SQLite repository (runs migrations)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// Initialize AMQP publisher (optional). Without a broker, recompute
	// requests run inline instead of being queued for the worker.
	var publisher services.RecomputePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, recompute requests will run inline",
				log.FieldError, err.Error())
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	pl := planner.New(logger.WithComponent(log.ComponentPlanner))
	service := services.NewRecommendationService(repo, pl, publisher)
	defer service.Close()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:          ":" + cfg.Port,
		PlanCacheSize: cfg.PlanCacheSize,
		PlanCacheTTL:  cfg.PlanCacheTTL,
	}, service, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting svend server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
