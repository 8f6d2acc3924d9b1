// Package budget computes spending progress for recurring budgets and
// aggregates it into per-user insights.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/calc"
	"fintrack/internal/core"
	logx "fintrack/internal/log"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
)

// Progress is the spend snapshot of one budget for the current instance of
// its period.
type Progress struct {
	Budget           core.Budget
	Category         *core.Category // nil for whole-account budgets
	Period           calc.DateRange
	Spent            decimal.Decimal
	Remaining        decimal.Decimal // negative once exceeded
	Percentage       float64         // capped at 100
	RawPercentage    float64
	Status           Status
	TransactionCount int
}

// Reaches reports whether spending is at least percent of the budget amount,
// compared exactly rather than through the rounded RawPercentage.
func (p Progress) Reaches(percent float64) bool {
	return Reaches(p.Spent, p.Budget.Amount, percent)
}

// Engine evaluates budgets against the transaction store.
type Engine struct {
	store       store.Reader
	cache       *cache.Store
	progressTTL time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithProgressTTL sets how long evaluated progress stays cached. Long TTLs
// are only safe when ledger changes invalidate the cache.
func WithProgressTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.progressTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine. c may be nil to disable caching.
func New(r store.Reader, c *cache.Store, opts ...Option) *Engine {
	e := &Engine{store: r, cache: c, progressTTL: cache.TTLShort, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logx.FieldComponent, logx.ComponentBudget)
	return e
}

// Progress loads budgetID for userID and evaluates it. A budget owned by
// another user is reported as not found.
func (e *Engine) Progress(ctx context.Context, userID, budgetID string) (Progress, error) {
	if userID == "" {
		return Progress{}, core.Invalid("user id is required")
	}
	b, err := e.store.FindBudget(ctx, userID, budgetID)
	if err != nil {
		return Progress{}, err
	}
	return e.Evaluate(ctx, b)
}

// Evaluate is ProgressFor through the progress cache. Entries are keyed by
// the current period instance and are recomputed when the budget's terms
// differ from the cached ones.
func (e *Engine) Evaluate(ctx context.Context, b core.Budget) (Progress, error) {
	if e.cache == nil {
		return e.ProgressFor(ctx, b)
	}
	window, err := calc.Range(b.Period, e.now())
	if err != nil {
		return Progress{}, err
	}
	key := cache.BudgetProgressKey(b.UserID, b.ID, window.Start)
	if v, ok := e.cache.Get(key); ok {
		if p, ok := v.(Progress); ok && sameTerms(p.Budget, b) {
			return p, nil
		}
	}

	p, err := e.ProgressFor(ctx, b)
	if err != nil {
		return Progress{}, err
	}
	e.cache.Set(key, p, e.progressTTL)
	return p, nil
}

func sameTerms(a, b core.Budget) bool {
	return a.Amount.Equal(b.Amount) && a.CategoryID == b.CategoryID && a.Period == b.Period
}

// ProgressFor evaluates an already loaded budget. The window is the period
// instance containing now, not an accumulation since the budget's start.
func (e *Engine) ProgressFor(ctx context.Context, b core.Budget) (Progress, error) {
	window, err := calc.Range(b.Period, e.now())
	if err != nil {
		return Progress{}, err
	}
	if !b.Amount.IsPositive() {
		return Progress{}, core.Invalid("budget %s has a non-positive amount", b.ID)
	}

	f := store.Filter{Range: window}.OfType(core.Expense)
	var category *core.Category
	if b.IsCategoryScoped() {
		f.CategoryIDs = []string{b.CategoryID}
		c, err := e.store.FindCategory(ctx, b.UserID, b.CategoryID)
		switch {
		case err == nil:
			category = &c
		case !core.IsKind(err, core.KindNotFound):
			return Progress{}, fmt.Errorf("load budget category: %w", err)
		}
	}

	rows, err := e.store.AggregateTransactions(ctx, b.UserID, f)
	if err != nil {
		return Progress{}, fmt.Errorf("sum budget spending: %w", err)
	}
	spent := decimal.Zero
	count := 0
	for _, row := range rows {
		spent = spent.Add(row.Sum)
		count += row.Count
	}

	// Reported percentages are rounded; status uses the exact amounts.
	raw := calc.RoundToTwo(spent.Mul(hundred).Div(b.Amount).InexactFloat64())
	p := Progress{
		Budget:           b,
		Category:         category,
		Period:           window,
		Spent:            spent,
		Remaining:        b.Amount.Sub(spent),
		Percentage:       DisplayPercentage(raw),
		RawPercentage:    raw,
		Status:           StatusOf(spent, b.Amount),
		TransactionCount: count,
	}
	e.logger.DebugContext(ctx, "Evaluated budget", logx.NewFields().
		WithUser(b.UserID).
		WithBudget(b.ID, string(p.Status), p.RawPercentage).
		ToSlice()...)
	return p, nil
}

// Active lists the user's budgets whose date range contains now.
func (e *Engine) Active(ctx context.Context, userID string) ([]core.Budget, error) {
	budgets, err := e.store.FindBudgets(ctx, userID, store.BudgetFilter{ActiveAt: e.now()})
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	return budgets, nil
}
