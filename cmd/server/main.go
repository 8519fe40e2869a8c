package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/guthaVamshi/ExpenseTracker/internal/amqp"
	"github.com/guthaVamshi/ExpenseTracker/internal/config"
	apphttp "github.com/guthaVamshi/ExpenseTracker/internal/http"
	"github.com/guthaVamshi/ExpenseTracker/internal/jobs"
	"github.com/guthaVamshi/ExpenseTracker/internal/log"
	"github.com/guthaVamshi/ExpenseTracker/internal/services"
	"github.com/guthaVamshi/ExpenseTracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting expense tracker server")

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

	// AMQP is optional; without it export falls back to the worker's poll.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - export events will rely on polling")
	}

	expenseService := services.NewExpenseService(repo, publisher)
	userService := services.NewUserService(repo, cfg.BcryptCost)

	srv := apphttp.NewServer(":"+cfg.Port, expenseService, userService, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := jobs.NewRunner(logger, cfg.Port,
		cfg.KeepAliveInterval,
		cfg.MemoryReportInterval,
		cfg.StatusLogInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error { return runner.RunKeepAlive(gctx) })
	g.Go(func() error { return runner.RunMemoryReport(gctx) })
	g.Go(func() error { return runner.RunStatusLog(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
