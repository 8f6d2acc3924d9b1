package store

import (
	"context"
	"time"

	"fintrack/internal/calc"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Filter narrows a user's transactions. Zero values mean "no constraint".
type Filter struct {
	Types       []core.TransactionType
	CategoryIDs []string
	Range       calc.DateRange // inclusive; a zero Start or End leaves that side open
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	Search      string // case-insensitive substring of the description
}

// OfType returns a copy of f restricted to a single transaction type.
func (f Filter) OfType(t core.TransactionType) Filter {
	f.Types = []core.TransactionType{t}
	return f
}

// InRange returns a copy of f restricted to r.
func (f Filter) InRange(r calc.DateRange) Filter {
	f.Range = r
	return f
}

// GroupKey selects an extra grouping dimension for AggregateTransactions.
// Aggregates are always split by transaction type as well.
type GroupKey string

const (
	GroupCategory      GroupKey = "category"
	GroupPaymentMethod GroupKey = "payment_method"
)

// Aggregate is one grouped sum. Fields for dimensions that were not
// requested are left empty.
type Aggregate struct {
	Type          core.TransactionType
	CategoryID    string
	PaymentMethod string
	Sum           decimal.Decimal
	Count         int
}

// BudgetFilter narrows a user's budgets.
type BudgetFilter struct {
	CategoryID        string
	ActiveAt          time.Time // zero means any
	NotificationsOnly bool
}

// Ports for the analytics and budget engines and the mutation services.
// Every call is scoped to one user; records owned by another user are
// reported as not found.
type (
	TransactionFinder interface {
		FindTransactions(ctx context.Context, userID string, f Filter) ([]core.Transaction, error)
	}

	TransactionAggregator interface {
		AggregateTransactions(ctx context.Context, userID string, f Filter, keys ...GroupKey) ([]Aggregate, error)
	}

	TransactionWriter interface {
		FindTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	CategoryReader interface {
		FindCategory(ctx context.Context, userID, id string) (core.Category, error)
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	}

	CategoryWriter interface {
		CreateCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, userID, id string) error
		CountTransactionsByCategory(ctx context.Context, userID, categoryID string) (int, error)
		CountChildren(ctx context.Context, userID, categoryID string) (int, error)
	}

	BudgetReader interface {
		FindBudget(ctx context.Context, userID, id string) (core.Budget, error)
		FindBudgets(ctx context.Context, userID string, f BudgetFilter) ([]core.Budget, error)
	}

	BudgetWriter interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	// BudgetScanner is the one cross-user read, used by the notifier.
	BudgetScanner interface {
		ListNotifiableBudgets(ctx context.Context, at time.Time) ([]core.Budget, error)
	}

	// Reader is everything the read-only engines need.
	Reader interface {
		TransactionFinder
		TransactionAggregator
		CategoryReader
		BudgetReader
	}

	// Store is the full backend contract implemented by every backend.
	Store interface {
		Reader
		TransactionWriter
		CategoryWriter
		BudgetWriter
		BudgetScanner
	}
)
