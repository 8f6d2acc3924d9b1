package analytics

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/calc"
	"fintrack/internal/core"
	"fintrack/internal/store"

	"golang.org/x/sync/errgroup"
)

// ComparisonOptions holds the two windows. All four bounds are required.
type ComparisonOptions struct {
	Period1Start time.Time
	Period1End   time.Time
	Period2Start time.Time
	Period2End   time.Time
}

func (o ComparisonOptions) ranges() (calc.DateRange, calc.DateRange, error) {
	if o.Period1Start.IsZero() || o.Period1End.IsZero() || o.Period2Start.IsZero() || o.Period2End.IsZero() {
		return calc.DateRange{}, calc.DateRange{}, core.Invalid("all period dates are required")
	}
	p1 := calc.DateRange{Start: o.Period1Start, End: o.Period1End}
	p2 := calc.DateRange{Start: o.Period2Start, End: o.Period2End}
	if p1.End.Before(p1.Start) || p2.End.Before(p2.Start) {
		return calc.DateRange{}, calc.DateRange{}, core.Invalid("period end must not be before its start")
	}
	return p1, p2, nil
}

// Comparison computes stats for both windows and the change of each metric
// from Period2 to Period1.
func (s *Service) Comparison(ctx context.Context, userID string, opts ComparisonOptions) (Comparison, error) {
	if err := requireUser(userID); err != nil {
		return Comparison{}, err
	}
	p1, p2, err := opts.ranges()
	if err != nil {
		return Comparison{}, err
	}

	ttl := s.ttlFor(p1)
	if t := s.ttlFor(p2); t < ttl {
		ttl = t
	}
	key := cache.ComparisonKey(userID, p1.Start, p1.End, p2.Start, p2.End)
	return memo(ctx, s, "comparison", userID, key, ttl, func(ctx context.Context) (Comparison, error) {
		return s.computeComparison(ctx, userID, p1, p2)
	})
}

func (s *Service) computeComparison(ctx context.Context, userID string, p1, p2 calc.DateRange) (Comparison, error) {
	var (
		rows1, rows2 []store.Aggregate
		cats         map[string]core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows1, err = s.store.AggregateTransactions(gctx, userID, store.Filter{Range: p1}, store.GroupCategory)
		return err
	})
	g.Go(func() error {
		var err error
		rows2, err = s.store.AggregateTransactions(gctx, userID, store.Filter{Range: p2}, store.GroupCategory)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.categoryIndex(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, fmt.Errorf("load comparison data: %w", err)
	}

	s1 := periodStats(p1, rows1, cats)
	s2 := periodStats(p2, rows2, cats)
	countChange := calc.PercentageChange(float64(s1.Summary.TransactionCount), float64(s2.Summary.TransactionCount))

	return Comparison{
		Period1: s1,
		Period2: s2,
		Change: Changes{
			Income:             change(s1.Summary.Income, s2.Summary.Income),
			Expense:            change(s1.Summary.Expense, s2.Summary.Expense),
			Balance:            change(s1.Summary.Balance, s2.Summary.Balance),
			TransactionCount:   calc.RoundToTwo(countChange),
			AverageTransaction: change(s1.AverageTransaction, s2.AverageTransaction),
		},
	}, nil
}

func periodStats(r calc.DateRange, rows []store.Aggregate, cats map[string]core.Category) PeriodStats {
	totals := aggregate.FromAggregates(rows)
	st := PeriodStats{
		Range:              r,
		Summary:            summaryOf(totals),
		AverageTransaction: perItem(totals.Income.Add(totals.Expense), totals.Count()),
	}
	if top := topCategories(rows, cats, 1); len(top) == 1 {
		st.TopCategory = &top[0]
	}
	return st
}
