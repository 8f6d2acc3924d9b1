package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	logx "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = 0
	}
	logger := logx.New(logx.Config{Level: level, Component: logx.ComponentApp, Output: os.Stdout})
	logx.SetDefault(logger)

	logger.Info("Starting budget-notifier")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).Create(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	// Cache shared by the analytics service and the budget engine, swept in
	// the background and invalidated by ledger events.
	store := cache.NewStore(cache.WithMaxEntries(cfg.CacheMaxEntries))
	cacheManager := cache.NewManager(logger.WithComponent(logx.ComponentCache).Logger)
	cacheManager.Register(store)
	cacheManager.StartCleanup(cfg.CacheSweepInterval)

	var (
		amqpClient *amqp.Client
		publisher  services.AlertPublisher = services.LogPublisher{Logger: logger.Logger}
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, amqp.Topology{
			Exchange:    cfg.AMQPExchange,
			AlertQueue:  cfg.AMQPAlertQueue,
			LedgerQueue: cfg.AMQPLedgerQueue,
		}, logger.WithComponent(logx.ComponentAMQP).Logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, alerts will be logged only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"alert_queue", cfg.AMQPAlertQueue,
				"ledger_queue", cfg.AMQPLedgerQueue)
		}
	} else {
		logger.Info("AMQP disabled - alerts will be logged only")
	}

	// Ledger events from other processes invalidate cached progress, so it can
	// outlive a check interval. Without them every check reads the store.
	progressTTL := cache.TTLShort
	if amqpClient != nil {
		progressTTL = cache.TTLDay
	}
	an := analytics.New(res.Store, store, analytics.WithLogger(logger.Logger))
	engine := budget.New(res.Store, store,
		budget.WithLogger(logger.Logger),
		budget.WithProgressTTL(progressTTL))

	notifierCfg := services.NotifierConfig{
		Interval:        cfg.NotifierInterval,
		WarningPercent:  cfg.NotifyWarningPercent,
		DedupWindow:     cfg.NotifyDedupWindow,
		CleanupInterval: time.Hour,
	}
	notifier := services.NewBudgetNotifier(res.Store, engine, publisher, notifierCfg, logger.Logger)
	runner := services.NewNotifierRunner(notifier, notifierCfg)
	if err := runner.Start(ctx); err != nil {
		logger.Error("Failed to start budget notifier", "error", err)
		os.Exit(1)
	}

	consumerDone := make(chan struct{})
	if amqpClient != nil {
		invalidation := worker.NewInvalidationWorker(an, logger.Logger)
		go func() {
			defer close(consumerDone)
			err := amqpClient.ConsumeLedgerChanged(ctx, invalidation.HandleLedgerChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Ledger consumer stopped", "error", err)
			}
		}()
	} else {
		close(consumerDone)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down budget-notifier...", logx.FieldOperation, logx.OpShutdown)

	if err := runner.Stop(shutdownCtx); err != nil {
		logger.Warn("Notifier did not stop in time", "error", err)
	}
	cancel()
	cacheManager.Stop()

	select {
	case <-consumerDone:
		logger.Info("Budget-notifier shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached")
	}
}
