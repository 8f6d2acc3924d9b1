package main

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	logx "fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/spf13/cobra"
)

// app holds everything a command needs. It is built once per invocation in
// the root command's PersistentPreRunE.
type app struct {
	userID   string
	logLevel string

	cfg       *config.Config
	logger    *logx.Logger
	backend   *backend.Result
	cache     *cache.Store
	analytics *analytics.Service
	budgets   *budget.Engine
	amqp      *amqp.Client
	closed    bool
}

func (a *app) init(cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	cfg := config.Load()
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logx.New(logx.Config{Level: level, Component: logx.ComponentCLI, Output: cmd.ErrOrStderr()})

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(a.logger.Logger).Create(ctx, bcfg)
	if err != nil {
		return err
	}
	a.backend = res

	a.cache = cache.NewStore(cache.WithMaxEntries(cfg.CacheMaxEntries))
	a.analytics = analytics.New(res.Store, a.cache, analytics.WithLogger(a.logger.Logger))
	a.budgets = budget.New(res.Store, a.cache, budget.WithLogger(a.logger.Logger))

	cmd.SetContext(logx.NewContext(ctx, a.logger))
	return nil
}

// ledgerPublisher connects to the broker on first use. Without AMQP_URL, or
// when the broker is unreachable, it returns nil and writes stay local.
func (a *app) ledgerPublisher() services.LedgerPublisher {
	if a.cfg.AMQPURL == "" {
		return nil
	}
	if a.amqp == nil {
		client, err := amqp.NewClient(a.cfg.AMQPURL, amqp.Topology{
			Exchange:    a.cfg.AMQPExchange,
			AlertQueue:  a.cfg.AMQPAlertQueue,
			LedgerQueue: a.cfg.AMQPLedgerQueue,
		}, a.logger.Logger)
		if err != nil {
			a.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
			return nil
		}
		a.amqp = client
	}
	return a.amqp
}

// close releases the broker connection and the backend. It is safe to call
// more than once and before init.
func (a *app) close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("Failed to close AMQP client", "error", err)
		}
	}
	if err := a.backend.Close(); err != nil {
		return fmt.Errorf("close backend: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
