package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	logx "fintrack/internal/log"
	"fintrack/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetStore is what BudgetService needs from a backend.
type BudgetStore interface {
	store.CategoryReader
	store.BudgetReader
	store.BudgetWriter
}

type BudgetInput struct {
	CategoryID string
	Amount     decimal.Decimal
	Period     core.Period
	StartDate  time.Time
	EndDate    *time.Time
	// Notifications defaults to enabled when nil.
	Notifications *bool
}

// BudgetPatch updates only the non-nil fields. ClearEndDate makes the budget
// open-ended.
type BudgetPatch struct {
	CategoryID    *string
	Amount        *decimal.Decimal
	Period        *core.Period
	StartDate     *time.Time
	EndDate       *time.Time
	ClearEndDate  bool
	Notifications *bool
}

type BudgetService struct {
	store       BudgetStore
	invalidator CacheInvalidator
	now         func() time.Time
	logger      *slog.Logger
}

func NewBudgetService(s BudgetStore, invalidator CacheInvalidator, logger *slog.Logger) *BudgetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetService{store: s, invalidator: invalidator, now: time.Now, logger: logger}
}

func (s *BudgetService) Create(ctx context.Context, userID string, in BudgetInput) (core.Budget, error) {
	b := core.Budget{
		ID:                   uuid.NewString(),
		UserID:               userID,
		CategoryID:           in.CategoryID,
		Amount:               in.Amount,
		Period:               in.Period,
		StartDate:            in.StartDate,
		EndDate:              in.EndDate,
		NotificationsEnabled: in.Notifications == nil || *in.Notifications,
		CreatedAt:            s.now(),
	}
	if err := s.check(ctx, b); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	s.logger.InfoContext(ctx, "Created budget",
		logx.FieldUserID, userID,
		logx.FieldBudgetID, b.ID,
		logx.FieldPeriod, b.Period)
	s.invalidate(userID)
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, patch BudgetPatch) (core.Budget, error) {
	b, err := s.store.FindBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}
	if patch.CategoryID != nil {
		b.CategoryID = *patch.CategoryID
	}
	if patch.Amount != nil {
		b.Amount = *patch.Amount
	}
	if patch.Period != nil {
		b.Period = *patch.Period
	}
	if patch.StartDate != nil {
		b.StartDate = *patch.StartDate
	}
	switch {
	case patch.ClearEndDate:
		b.EndDate = nil
	case patch.EndDate != nil:
		end := *patch.EndDate
		b.EndDate = &end
	}
	if patch.Notifications != nil {
		b.NotificationsEnabled = *patch.Notifications
	}

	if err := s.check(ctx, b); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.invalidate(userID)
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// check validates b and verifies that its category belongs to the same user.
func (s *BudgetService) check(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.IsCategoryScoped() {
		if _, err := s.store.FindCategory(ctx, b.UserID, b.CategoryID); err != nil {
			return fmt.Errorf("budget category: %w", err)
		}
	}
	return nil
}

func (s *BudgetService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
