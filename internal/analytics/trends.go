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

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTrendLimit = 12
	trendSample       = 3 // buckets compared at each end of the series
	bucketFanOut      = 4
)

// TrendOptions selects the bucket granularity and count. Zero values default
// to 12 monthly buckets.
type TrendOptions struct {
	Period core.Period
	Limit  int
}

// Trends builds Limit consecutive buckets ending with the one containing now,
// oldest first, and classifies the expense direction.
func (s *Service) Trends(ctx context.Context, userID string, opts TrendOptions) (Trends, error) {
	if err := requireUser(userID); err != nil {
		return Trends{}, err
	}
	period := opts.Period
	if period == "" {
		period = core.Monthly
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultTrendLimit
	}
	window, err := calc.Window(period)
	if err != nil {
		return Trends{}, err
	}

	now := s.now()
	anchor := window.Bounds(now).Start
	key := cache.TrendsKey(userID, string(period), limit, anchor)
	return memo(ctx, s, "trends", userID, key, cache.TTLMedium, func(ctx context.Context) (Trends, error) {
		return s.computeTrends(ctx, userID, period, window, limit, now)
	})
}

func (s *Service) computeTrends(ctx context.Context, userID string, period core.Period, window calc.PeriodWindow, limit int, now time.Time) (Trends, error) {
	ranges, err := calc.Buckets(period, now, limit)
	if err != nil {
		return Trends{}, err
	}

	// Each goroutine writes only its own slot, so output order follows the
	// period order regardless of completion order.
	buckets := make([]TrendBucket, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bucketFanOut)
	for i, r := range ranges {
		g.Go(func() error {
			rows, err := s.store.AggregateTransactions(gctx, userID, store.Filter{Range: r})
			if err != nil {
				return err
			}
			t := aggregate.FromAggregates(rows)
			buckets[i] = TrendBucket{
				Label:            window.Label(r.Start),
				Range:            r,
				Income:           t.Income,
				Expense:          t.Expense,
				Balance:          t.Balance(),
				TransactionCount: t.Count(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Trends{}, fmt.Errorf("load trend buckets: %w", err)
	}

	direction, pct := trendDirection(buckets)

	income := decimal.Zero
	expenses := make([]float64, len(buckets))
	for i, b := range buckets {
		income = income.Add(b.Income)
		expenses[i] = b.Expense.InexactFloat64()
	}
	n := decimal.NewFromInt(int64(len(buckets)))

	return Trends{
		Period:           period,
		Buckets:          buckets,
		Direction:        direction,
		ChangePercentage: pct,
		AverageIncome:    income.Div(n).Round(2),
		AverageExpense:   averageExpense(buckets).Round(2),
		ExpenseMovingAvg: calc.SimpleMovingAverage(expenses, trendSample),
	}, nil
}

// trendDirection compares the mean expense of the newest buckets with the
// oldest ones. The percentage is 0 when the older mean is 0.
func trendDirection(buckets []TrendBucket) (TrendDirection, float64) {
	if len(buckets) == 0 {
		return Stable, 0
	}
	n := trendSample
	if len(buckets) < n {
		n = len(buckets)
	}
	older := averageExpense(buckets[:n])
	recent := averageExpense(buckets[len(buckets)-n:])

	pct := 0.0
	if older.IsPositive() {
		pct = calc.RoundToTwo(recent.Sub(older).Div(older).InexactFloat64() * 100)
	}
	return directionOf(recent.Sub(older)), pct
}

func averageExpense(buckets []TrendBucket) decimal.Decimal {
	if len(buckets) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, b := range buckets {
		sum = sum.Add(b.Expense)
	}
	return sum.Div(decimal.NewFromInt(int64(len(buckets))))
}
