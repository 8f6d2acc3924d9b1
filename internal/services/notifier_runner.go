package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// NotifierRunner drives a BudgetNotifier on a fixed interval.
type NotifierRunner struct {
	notifier *BudgetNotifier
	config   NotifierConfig
	now      func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewNotifierRunner(notifier *BudgetNotifier, config NotifierConfig) *NotifierRunner {
	return &NotifierRunner{
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

// Start begins the check loop. Returns an error if already running.
func (r *NotifierRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("notifier is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Budget notifier started",
		"interval", r.config.Interval,
		"warning_percent", r.config.WarningPercent,
		"dedup_window", r.config.DedupWindow)

	return nil
}

// Stop signals the loop and waits for it to finish or for ctx to expire.
func (r *NotifierRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Budget notifier stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Budget notifier stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	return nil
}

func (r *NotifierRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *NotifierRunner) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	checkTicker := time.NewTicker(r.config.Interval)
	defer checkTicker.Stop()

	cleanupTicker := time.NewTicker(r.config.CleanupInterval)
	defer cleanupTicker.Stop()

	// Check immediately on startup
	r.check(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-checkTicker.C:
			r.check(ctx)
		case <-cleanupTicker.C:
			if n := r.notifier.Prune(r.now()); n > 0 {
				slog.DebugContext(ctx, "Pruned alert dedup entries", "count", n)
			}
		}
	}
}

func (r *NotifierRunner) check(ctx context.Context) {
	if _, err := r.notifier.CheckBudgets(ctx, r.now()); err != nil {
		slog.ErrorContext(ctx, "Budget check failed", "error", err)
	}
}
