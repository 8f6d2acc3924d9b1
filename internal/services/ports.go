// Package services holds the mutation paths that guard domain invariants
// before persisting, plus the budget notifier that runs in the background.
package services

import (
	"context"

	"fintrack/internal/amqp"
)

// LedgerPublisher announces transaction changes to other processes.
type LedgerPublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// AlertPublisher delivers budget alerts.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// CacheInvalidator drops cached results for a user.
type CacheInvalidator interface {
	Invalidate(userID string) int
}

var (
	_ LedgerPublisher = (*amqp.Client)(nil)
	_ AlertPublisher  = (*amqp.Client)(nil)
)
