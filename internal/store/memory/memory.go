package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Store is an in-process backend implementing every store port. It is used
// for tests, demos and the seed-file backend.
type Store struct {
	mu           sync.RWMutex
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// FindTransactions returns the user's matching transactions ordered by date.
func (s *Store) FindTransactions(_ context.Context, userID string, f store.Filter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID && aggregate.Match(f, tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// AggregateTransactions sums the user's matching transactions by type and keys.
func (s *Store) AggregateTransactions(ctx context.Context, userID string, f store.Filter, keys ...store.GroupKey) ([]store.Aggregate, error) {
	txs, err := s.FindTransactions(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return aggregate.Sums(txs, keys...), nil
}

func (s *Store) FindTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.transactions {
		if tx.ID == id && tx.UserID == userID {
			return tx, nil
		}
	}
	return core.Transaction{}, core.NotFound("transaction %s not found", id)
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.transactions {
		if existing.ID == tx.ID {
			return core.Conflict("transaction %s already exists", tx.ID)
		}
	}
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.transactions {
		if tx.ID == id && tx.UserID == userID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return core.NotFound("transaction %s not found", id)
}

func (s *Store) FindCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.categoryIndex(userID, id); i >= 0 {
		return s.categories[i], nil
	}
	return core.Category{}, core.NotFound("category %s not found", id)
}

// ListCategories returns the user's categories sorted by name.
func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.ID == c.ID {
			return core.Conflict("category %s already exists", c.ID)
		}
		if existing.UserID == c.UserID && existing.Name == c.Name {
			return core.Conflict("category name %q already in use", c.Name)
		}
	}
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(c.UserID, c.ID)
	if i < 0 {
		return core.NotFound("category %s not found", c.ID)
	}
	for _, existing := range s.categories {
		if existing.UserID == c.UserID && existing.ID != c.ID && existing.Name == c.Name {
			return core.Conflict("category name %q already in use", c.Name)
		}
	}
	s.categories[i] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(userID, id)
	if i < 0 {
		return core.NotFound("category %s not found", id)
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	return nil
}

func (s *Store) CountTransactionsByCategory(_ context.Context, userID, categoryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountChildren(_ context.Context, userID, categoryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.categories {
		if c.UserID == userID && c.ParentID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.budgetIndex(userID, id); i >= 0 {
		return s.budgets[i], nil
	}
	return core.Budget{}, core.NotFound("budget %s not found", id)
}

// FindBudgets returns the user's budgets matching f, oldest first.
func (s *Store) FindBudgets(_ context.Context, userID string, f store.BudgetFilter) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID && budgetMatches(f, b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListNotifiableBudgets returns every user's active budgets with notifications enabled.
func (s *Store) ListNotifiableBudgets(_ context.Context, at time.Time) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := store.BudgetFilter{ActiveAt: at, NotificationsOnly: true}
	var out []core.Budget
	for _, b := range s.budgets {
		if budgetMatches(f, b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.ID == b.ID {
			return core.Conflict("budget %s already exists", b.ID)
		}
	}
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(b.UserID, b.ID)
	if i < 0 {
		return core.NotFound("budget %s not found", b.ID)
	}
	s.budgets[i] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(userID, id)
	if i < 0 {
		return core.NotFound("budget %s not found", id)
	}
	s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
	return nil
}

func (s *Store) categoryIndex(userID, id string) int {
	for i, c := range s.categories {
		if c.ID == id && c.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Store) budgetIndex(userID, id string) int {
	for i, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			return i
		}
	}
	return -1
}

func budgetMatches(f store.BudgetFilter, b core.Budget) bool {
	if f.CategoryID != "" && b.CategoryID != f.CategoryID {
		return false
	}
	if !f.ActiveAt.IsZero() && !b.IsActive(f.ActiveAt) {
		return false
	}
	if f.NotificationsOnly && !b.NotificationsEnabled {
		return false
	}
	return true
}
