package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/guthaVamshi/ExpenseTracker/internal/amqp"
	"github.com/guthaVamshi/ExpenseTracker/internal/config"
	"github.com/guthaVamshi/ExpenseTracker/internal/export"
	gsheet "github.com/guthaVamshi/ExpenseTracker/internal/export/google"
	mem "github.com/guthaVamshi/ExpenseTracker/internal/export/memory"
	"github.com/guthaVamshi/ExpenseTracker/internal/log"
	"github.com/guthaVamshi/ExpenseTracker/internal/storage"
	"github.com/guthaVamshi/ExpenseTracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting sync worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var appender export.Appender
	switch cfg.ExportBackend {
	case "sheets":
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Initialized Google Sheets export backend")
	case "memory":
		appender = mem.NewSink()
		logger.Info("Initialized in-memory export backend")
	default:
		logger.Info("Export disabled - nothing to sync, exiting")
		return
	}

	syncWorker := worker.NewSyncWorker(repo, appender, cfg.ExportBatchSize)

	// Process rows missed while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", log.FieldError, err)
		// Don't exit, continue with normal operation.
	}

	// AMQP consumption is optional; without it the poll below does all the
	// work.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.Consume(ctx, func(msg *amqp.ExpenseMessage) error {
				return syncWorker.HandleMessage(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on periodic polling only")
	}

	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sync worker stopped")
			return
		case <-ticker.C:
			if err := syncWorker.ProcessPending(ctx); err != nil {
				logger.Error("Periodic sync failed", log.FieldError, err)
			}
		}
	}
}
