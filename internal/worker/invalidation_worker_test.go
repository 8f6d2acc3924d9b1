package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
)

type recorder struct {
	users []string
}

func (r *recorder) Invalidate(userID string) int {
	r.users = append(r.users, userID)
	return 0
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleLedgerChanged(t *testing.T) {
	tests := []struct {
		name string
		msg  *amqp.LedgerChangedMessage
		want []string
	}{
		{"created", amqp.NewLedgerChangedMessage("u1", "t1", amqp.LedgerCreated), []string{"u1"}},
		{"deleted", amqp.NewLedgerChangedMessage("u2", "t9", amqp.LedgerDeleted), []string{"u2"}},
		{"missing user", amqp.NewLedgerChangedMessage("", "t1", amqp.LedgerCreated), nil},
		{"nil message", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			w := NewInvalidationWorker(rec, quiet())
			if err := w.HandleLedgerChanged(context.Background(), tt.msg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rec.users) != len(tt.want) {
				t.Fatalf("invalidated %v, want %v", rec.users, tt.want)
			}
			for i := range tt.want {
				if rec.users[i] != tt.want[i] {
					t.Errorf("invalidated %v, want %v", rec.users, tt.want)
				}
			}
		})
	}
}

type cacheInvalidator struct{ store *cache.Store }

func (c cacheInvalidator) Invalidate(userID string) int {
	return c.store.DeletePattern(cache.UserPattern(userID))
}

func TestHandleLedgerChanged_ClearsOnlyThatUser(t *testing.T) {
	c := cache.NewStore()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	c.Set(cache.OverviewKey("u1", start, end), 1, time.Minute)
	c.Set(cache.BudgetInsightsKey("u1"), 2, time.Minute)
	c.Set(cache.OverviewKey("u2", start, end), 3, time.Minute)

	w := NewInvalidationWorker(cacheInvalidator{c}, quiet())
	if err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage("u1", "t1", amqp.LedgerCreated)); err != nil {
		t.Fatal(err)
	}

	if c.Size() != 1 || !c.Has(cache.OverviewKey("u2", start, end)) {
		t.Errorf("cache size = %d, u2 entry present = %v", c.Size(), c.Has(cache.OverviewKey("u2", start, end)))
	}
}
