package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/store/memory"
)

const user = "u1"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu     sync.Mutex
	ledger []*amqp.LedgerChangedMessage
	alerts []*amqp.BudgetAlertMessage
	err    error
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ledger = append(p.ledger, msg)
	return nil
}

func (p *recordingPublisher) PublishBudgetAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.alerts = append(p.alerts, msg)
	return nil
}

func (p *recordingPublisher) alertCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

type countingInvalidator struct {
	calls map[string]int
}

func (c *countingInvalidator) Invalidate(userID string) int {
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[userID]++
	return 1
}

func seedCategories(t *testing.T, s *memory.Store, cats ...core.Category) {
	t.Helper()
	for _, c := range cats {
		if c.UserID == "" {
			c.UserID = user
		}
		if c.Color == "" {
			c.Color = "#112233"
		}
		if err := s.CreateCategory(context.Background(), c); err != nil {
			t.Fatalf("seed category %s: %v", c.ID, err)
		}
	}
}
