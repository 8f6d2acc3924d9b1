package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/calc"
	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const topCategoryLimit = 5

// OverviewOptions selects the window. Zero bounds default to the current month.
type OverviewOptions struct {
	Start time.Time
	End   time.Time
}

// Overview totals the window, ranks the top expense categories and compares
// against the preceding window of equal length.
func (s *Service) Overview(ctx context.Context, userID string, opts OverviewOptions) (Overview, error) {
	if err := requireUser(userID); err != nil {
		return Overview{}, err
	}
	r, err := s.resolveRange(opts.Start, opts.End)
	if err != nil {
		return Overview{}, err
	}

	key := cache.OverviewKey(userID, r.Start, r.End)
	return memo(ctx, s, "overview", userID, key, s.ttlFor(r), func(ctx context.Context) (Overview, error) {
		return s.computeOverview(ctx, userID, r)
	})
}

func (s *Service) computeOverview(ctx context.Context, userID string, r calc.DateRange) (Overview, error) {
	prev := r.Previous()

	var (
		current, previous []store.Aggregate
		byCategory        []store.Aggregate
		cats              map[string]core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.store.AggregateTransactions(gctx, userID, store.Filter{Range: r})
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.store.AggregateTransactions(gctx, userID, store.Filter{Range: prev})
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.store.AggregateTransactions(gctx, userID,
			store.Filter{Range: r}.OfType(core.Expense), store.GroupCategory)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.categoryIndex(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("load overview data: %w", err)
	}

	totals := aggregate.FromAggregates(current)
	prevTotals := aggregate.FromAggregates(previous)

	return Overview{
		Range:          r,
		Summary:        summaryOf(totals),
		AverageIncome:  perItem(totals.Income, totals.IncomeCount),
		AverageExpense: perItem(totals.Expense, totals.ExpenseCount),
		TopCategories:  topCategories(byCategory, cats, topCategoryLimit),
		PreviousRange:  prev,
		Previous:       summaryOf(prevTotals),
		IncomeChange:   change(totals.Income, prevTotals.Income),
		ExpenseChange:  change(totals.Expense, prevTotals.Expense),
	}, nil
}

// topCategories ranks expense aggregates by amount, descending.
func topCategories(rows []store.Aggregate, cats map[string]core.Category, limit int) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(rows))
	for _, row := range rows {
		if row.Type != core.Expense {
			continue
		}
		out = append(out, CategoryAmount{
			Category: categoryRef(cats, row.CategoryID),
			Amount:   row.Sum,
			Count:    row.Count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category.ID < out[j].Category.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// perItem divides total by n, yielding zero for an empty set.
func perItem(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

func change(current, previous decimal.Decimal) float64 {
	return calc.RoundToTwo(calc.PercentageChange(current.InexactFloat64(), previous.InexactFloat64()))
}
