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

// MonthlyOptions selects the month. Zero values default to the current month.
type MonthlyOptions struct {
	Year  int
	Month time.Month
}

// Monthly produces a zero-filled daily series for one calendar month plus
// category and payment method breakdowns for the whole month.
func (s *Service) Monthly(ctx context.Context, userID string, opts MonthlyOptions) (Monthly, error) {
	if err := requireUser(userID); err != nil {
		return Monthly{}, err
	}
	now := s.now()
	year, month := opts.Year, opts.Month
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return Monthly{}, core.Invalid("month must be between 1 and 12, got %d", int(month))
	}
	r := calc.MonthRange(year, month, now.Location())

	key := cache.MonthlyKey(userID, year, month)
	return memo(ctx, s, "monthly", userID, key, s.ttlFor(r), func(ctx context.Context) (Monthly, error) {
		return s.computeMonthly(ctx, userID, year, month, r)
	})
}

func (s *Service) computeMonthly(ctx context.Context, userID string, year int, month time.Month, r calc.DateRange) (Monthly, error) {
	var (
		txs  []core.Transaction
		cats map[string]core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.FindTransactions(gctx, userID, store.Filter{Range: r})
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.categoryIndex(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Monthly{}, fmt.Errorf("load month: %w", err)
	}

	loc := r.Start.Location()
	byDay := make(map[string]aggregate.Bucket)
	for _, b := range aggregate.ByDay(txs, loc) {
		byDay[b.Key] = b
	}

	var days []DailyPoint
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		k := calc.DayKey(d)
		b := byDay[k]
		days = append(days, DailyPoint{
			Date:             k,
			Income:           b.Income,
			Expense:          b.Expense,
			Balance:          b.Income.Sub(b.Expense),
			TransactionCount: b.Count,
		})
	}

	categories := aggregate.ByCategory(txs)
	aggregate.SortByActivity(categories)
	methods := aggregate.ByPaymentMethod(txs)
	aggregate.SortByActivity(methods)

	return Monthly{
		Year:           year,
		Month:          month,
		Range:          r,
		Summary:        summaryOf(aggregate.Summarize(txs)),
		Days:           days,
		Categories:     categoryBreakdowns(categories, cats),
		PaymentMethods: breakdowns(methods),
	}, nil
}

func breakdowns(buckets []aggregate.Bucket) []Breakdown {
	out := make([]Breakdown, len(buckets))
	for i, b := range buckets {
		out[i] = Breakdown{Key: b.Key, Label: b.Label, Income: b.Income, Expense: b.Expense, Count: b.Count}
	}
	return out
}

func categoryBreakdowns(buckets []aggregate.Bucket, cats map[string]core.Category) []Breakdown {
	out := breakdowns(buckets)
	for i := range out {
		ref := categoryRef(cats, out[i].Key)
		out[i].Label = ref.Name
		out[i].Category = &ref
	}
	return out
}
