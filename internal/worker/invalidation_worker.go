package worker

import (
	"context"
	"log/slog"

	"fintrack/internal/amqp"
	logx "fintrack/internal/log"
)

// Invalidator drops a user's cached analytics and budget results.
type Invalidator interface {
	Invalidate(userID string) int
}

// InvalidationWorker keeps a process-local cache coherent with ledger writes
// made by other processes.
type InvalidationWorker struct {
	invalidator Invalidator
	logger      *slog.Logger
}

func NewInvalidationWorker(invalidator Invalidator, logger *slog.Logger) *InvalidationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidationWorker{
		invalidator: invalidator,
		logger:      logger.With(logx.FieldComponent, logx.ComponentWorker),
	}
}

// HandleLedgerChanged processes a single ledger message from AMQP. A message
// without a user is acknowledged and dropped: redelivering it cannot help.
func (w *InvalidationWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg == nil || msg.UserID == "" {
		w.logger.WarnContext(ctx, "Dropping ledger message without user")
		return nil
	}

	removed := w.invalidator.Invalidate(msg.UserID)

	w.logger.InfoContext(ctx, "Invalidated cache after ledger change",
		logx.FieldEventID, msg.EventID,
		logx.FieldUserID, msg.UserID,
		logx.FieldOperation, msg.Operation,
		logx.FieldCount, removed)
	return nil
}
