package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	logx "fintrack/internal/log"
	"fintrack/internal/store"

	"github.com/google/uuid"
)

// NotifierConfig holds configuration for the budget notifier.
type NotifierConfig struct {
	// Interval is how often budgets are checked (default: 1h)
	Interval time.Duration

	// WarningPercent is the usage at which warning budgets alert (default: 90)
	WarningPercent float64

	// DedupWindow suppresses repeated alerts for the same budget and status (default: 24h)
	DedupWindow time.Duration

	// CleanupInterval is how often expired dedup entries are pruned (default: 1h)
	CleanupInterval time.Duration
}

func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		Interval:        time.Hour,
		WarningPercent:  90,
		DedupWindow:     24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// BudgetNotifier scans every notification-enabled active budget and
// publishes an alert when a rule fires.
type BudgetNotifier struct {
	scanner   store.BudgetScanner
	engine    *budget.Engine
	publisher AlertPublisher
	rules     map[budget.Status]AlertRule
	window    time.Duration
	logger    *slog.Logger

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewBudgetNotifier(scanner store.BudgetScanner, engine *budget.Engine, publisher AlertPublisher, cfg NotifierConfig, logger *slog.Logger) *BudgetNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetNotifier{
		scanner:   scanner,
		engine:    engine,
		publisher: publisher,
		rules:     DefaultAlertRules(cfg.WarningPercent),
		window:    cfg.DedupWindow,
		logger:    logger.With(logx.FieldComponent, logx.ComponentNotifier),
		sent:      make(map[string]time.Time),
	}
}

// CheckBudgets evaluates every notifiable budget active at now and returns
// how many alerts were published. A failing budget is logged and skipped.
func (n *BudgetNotifier) CheckBudgets(ctx context.Context, now time.Time) (int, error) {
	if n.scanner == nil || n.engine == nil || n.publisher == nil {
		return 0, fmt.Errorf("notifier not properly initialized")
	}

	budgets, err := n.scanner.ListNotifiableBudgets(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list notifiable budgets: %w", err)
	}

	n.logger.InfoContext(ctx, "Checking budgets for notifications", logx.FieldCount, len(budgets))

	published := 0
	for _, b := range budgets {
		p, err := n.engine.Evaluate(ctx, b)
		if err != nil {
			n.logger.ErrorContext(ctx, "Failed to evaluate budget",
				logx.FieldBudgetID, b.ID,
				logx.FieldError, err)
			continue
		}

		rule, ok := n.rules[p.Status]
		if !ok {
			continue
		}
		title, message, ok := rule.Alert(p)
		if !ok {
			continue
		}

		key := b.ID + "|" + string(p.Status)
		if n.recentlySent(key, now) {
			continue
		}

		msg := &amqp.BudgetAlertMessage{
			EventID:     uuid.NewString(),
			UserID:      b.UserID,
			BudgetID:    b.ID,
			CategoryID:  b.CategoryID,
			Status:      string(p.Status),
			Title:       title,
			Message:     message,
			Spent:       p.Spent,
			Limit:       b.Amount,
			Percentage:  p.Percentage,
			PeriodStart: p.Period.Start,
			PeriodEnd:   p.Period.End,
			Timestamp:   now,
		}
		if err := n.publisher.PublishBudgetAlert(ctx, msg); err != nil {
			n.logger.ErrorContext(ctx, "Failed to publish budget alert",
				logx.FieldBudgetID, b.ID,
				logx.FieldError, err)
			continue
		}

		n.markSent(key, now)
		published++
		n.logger.InfoContext(ctx, "Published budget alert", logx.NewFields().
			WithUser(b.UserID).
			WithBudget(b.ID, string(p.Status), p.RawPercentage).
			ToSlice()...)
	}

	n.logger.InfoContext(ctx, "Budget check complete",
		"published", published,
		"total_checked", len(budgets))

	return published, nil
}

func (n *BudgetNotifier) recentlySent(key string, now time.Time) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	last, ok := n.sent[key]
	return ok && now.Sub(last) < n.window
}

func (n *BudgetNotifier) markSent(key string, now time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[key] = now
}

// Prune forgets dedup entries older than the window and returns how many
// were removed.
func (n *BudgetNotifier) Prune(now time.Time) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	removed := 0
	for key, at := range n.sent {
		if now.Sub(at) >= n.window {
			delete(n.sent, key)
			removed++
		}
	}
	return removed
}

// LogPublisher writes alerts to the log instead of a broker.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, msg.Title,
		logx.FieldUserID, msg.UserID,
		logx.FieldBudgetID, msg.BudgetID,
		logx.FieldStatus, msg.Status,
		"message", msg.Message)
	return nil
}
