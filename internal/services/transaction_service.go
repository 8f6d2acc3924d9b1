package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	logx "fintrack/internal/log"
	"fintrack/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStore is what TransactionService needs from a backend.
type TransactionStore interface {
	store.CategoryReader
	store.TransactionWriter
}

type TransactionInput struct {
	Amount        decimal.Decimal
	CategoryID    string
	Type          core.TransactionType
	Date          time.Time
	Description   string
	PaymentMethod string
	Location      string
}

// TransactionService records ledger changes locally first, then drops the
// user's cached analytics and announces the change. Publishing is best effort.
type TransactionService struct {
	store       TransactionStore
	invalidator CacheInvalidator
	publisher   LedgerPublisher
	now         func() time.Time
	logger      *slog.Logger
}

// NewTransactionService creates the service. invalidator and publisher may be nil.
func NewTransactionService(s TransactionStore, invalidator CacheInvalidator, publisher LedgerPublisher, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		store:       s,
		invalidator: invalidator,
		publisher:   publisher,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	now := s.now()
	tx := core.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        in.Amount,
		CategoryID:    in.CategoryID,
		Type:          in.Type,
		Date:          in.Date,
		Description:   strings.TrimSpace(in.Description),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Location:      in.Location,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	c, err := s.store.FindCategory(ctx, userID, tx.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction category: %w", err)
	}
	if !c.Type.Accepts(tx.Type) {
		return core.Transaction{}, core.Invalid("category %q does not accept %s transactions", c.Name, tx.Type)
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.changed(ctx, userID, tx.ID, amqp.LedgerCreated)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, id, amqp.LedgerDeleted)
	return nil
}

// changed invalidates the local cache and publishes a ledger event. Neither
// step fails the request: the transaction is already stored.
func (s *TransactionService) changed(ctx context.Context, userID, txID, op string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping ledger message")
		return
	}
	msg := amqp.NewLedgerChangedMessage(userID, txID, op)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		level := slog.LevelError
		if errors.Is(err, amqp.ErrCircuitOpen) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "Failed to publish ledger message", logx.NewFields().
			WithUser(userID).
			WithOperation(op).
			WithError(err).
			ToSlice()...)
	}
}
