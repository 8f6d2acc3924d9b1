package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	logx "fintrack/internal/log"
	"fintrack/internal/store"

	"github.com/google/uuid"
)

// CategoryStore is what CategoryService needs from a backend.
type CategoryStore interface {
	store.CategoryReader
	store.CategoryWriter
	store.TransactionAggregator
}

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Name     string
	Icon     string
	Color    string
	Type     core.CategoryType
	ParentID string
}

// CategoryPatch updates only the non-nil fields. An empty ParentID moves the
// category to the top level.
type CategoryPatch struct {
	Name     *string
	Icon     *string
	Color    *string
	Type     *core.CategoryType
	ParentID *string
}

type CategoryService struct {
	store       CategoryStore
	invalidator CacheInvalidator
	logger      *slog.Logger
}

// NewCategoryService creates the service. invalidator may be nil.
func NewCategoryService(s CategoryStore, invalidator CacheInvalidator, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{store: s, invalidator: invalidator, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, userID string, in CategoryInput) (core.Category, error) {
	c := core.Category{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     strings.TrimSpace(in.Name),
		Icon:     in.Icon,
		Color:    in.Color,
		Type:     in.Type,
		ParentID: in.ParentID,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ParentID != "" {
		if _, err := s.store.FindCategory(ctx, userID, c.ParentID); err != nil {
			return core.Category{}, fmt.Errorf("parent category: %w", err)
		}
	}

	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Created category", logx.NewFields().
		WithUser(userID).
		WithOperation(logx.OpCreate).
		ToSlice()...)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, patch CategoryPatch) (core.Category, error) {
	c, err := s.store.FindCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	previousType := c.Type
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.ParentID != nil {
		c.ParentID = *patch.ParentID
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ParentID != "" {
		if err := s.checkAncestry(ctx, userID, id, c.ParentID); err != nil {
			return core.Category{}, err
		}
	}
	if c.Type != previousType {
		if err := s.checkTypeNarrowing(ctx, userID, c); err != nil {
			return core.Category{}, err
		}
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	s.invalidate(userID)
	return c, nil
}

// checkTypeNarrowing rejects a type change that would leave existing
// transactions in a category that no longer accepts them.
func (s *CategoryService) checkTypeNarrowing(ctx context.Context, userID string, c core.Category) error {
	for _, t := range []core.TransactionType{core.Income, core.Expense} {
		if c.Type.Accepts(t) {
			continue
		}
		rows, err := s.store.AggregateTransactions(ctx, userID, store.Filter{CategoryIDs: []string{c.ID}}.OfType(t))
		if err != nil {
			return fmt.Errorf("count %s transactions: %w", t, err)
		}
		n := 0
		for _, r := range rows {
			n += r.Count
		}
		if n > 0 {
			return core.Invalid("cannot change category type to %s: it has %d %s transactions", c.Type, n, t)
		}
	}
	return nil
}

// checkAncestry walks up from parentID and fails if it reaches id, which
// would close a cycle.
func (s *CategoryService) checkAncestry(ctx context.Context, userID, id, parentID string) error {
	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return core.Invalid("circular category parent: %s is a descendant of %s", parentID, id)
		}
		if seen[cur] {
			return core.Invalid("category hierarchy already contains a cycle at %s", cur)
		}
		seen[cur] = true

		p, err := s.store.FindCategory(ctx, userID, cur)
		if err != nil {
			if cur == parentID {
				return fmt.Errorf("parent category: %w", err)
			}
			return err
		}
		cur = p.ParentID
	}
	return nil
}

// Delete removes a category that has neither transactions nor subcategories.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.store.FindCategory(ctx, userID, id); err != nil {
		return err
	}

	txs, err := s.store.CountTransactionsByCategory(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if txs > 0 {
		return core.Precondition("cannot delete category with %d transactions; reassign or delete them first", txs)
	}

	children, err := s.store.CountChildren(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("count subcategories: %w", err)
	}
	if children > 0 {
		return core.Precondition("cannot delete category with %d subcategories; delete them first", children)
	}

	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CategoryService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
