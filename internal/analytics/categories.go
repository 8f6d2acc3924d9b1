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

const recentPerCategory = 5

// CategoryOptions selects the window and an optional type filter.
type CategoryOptions struct {
	Start time.Time
	End   time.Time
	Type  core.TransactionType // empty means both
}

// Categories rolls the window up per category with totals, averages, share
// of the period total and the most recent transactions.
func (s *Service) Categories(ctx context.Context, userID string, opts CategoryOptions) (CategoryAnalytics, error) {
	if err := requireUser(userID); err != nil {
		return CategoryAnalytics{}, err
	}
	if opts.Type != "" && !opts.Type.Valid() {
		return CategoryAnalytics{}, core.Invalid("invalid transaction type %q", opts.Type)
	}
	r, err := s.resolveRange(opts.Start, opts.End)
	if err != nil {
		return CategoryAnalytics{}, err
	}

	key := cache.CategoryKey(userID, r.Start, r.End, string(opts.Type))
	return memo(ctx, s, "categories", userID, key, s.ttlFor(r), func(ctx context.Context) (CategoryAnalytics, error) {
		return s.computeCategories(ctx, userID, r, opts.Type)
	})
}

func (s *Service) computeCategories(ctx context.Context, userID string, r calc.DateRange, typ core.TransactionType) (CategoryAnalytics, error) {
	f := store.Filter{Range: r}
	if typ != "" {
		f = f.OfType(typ)
	}

	var (
		txs  []core.Transaction
		cats map[string]core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.FindTransactions(gctx, userID, f)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.categoryIndex(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return CategoryAnalytics{}, fmt.Errorf("load category data: %w", err)
	}

	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	totalF := total.InexactFloat64()

	buckets := aggregate.ByCategory(txs)
	stats := make([]CategoryStats, 0, len(buckets))
	for _, b := range buckets {
		sum := b.Activity()
		recent := append([]core.Transaction(nil), b.Transactions...)
		aggregate.SortTransactionsByDateDesc(recent)
		if len(recent) > recentPerCategory {
			recent = recent[:recentPerCategory]
		}

		stats = append(stats, CategoryStats{
			Category:      categoryRef(cats, b.Key),
			Income:        b.Income,
			Expense:       b.Expense,
			Total:         sum,
			Count:         b.Count,
			AverageAmount: perItem(sum, b.Count),
			Percentage:    calc.RoundToTwo(calc.Percentage(sum.InexactFloat64(), totalF)),
			Recent:        trimTransactions(recent),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if c := stats[i].Total.Cmp(stats[j].Total); c != 0 {
			return c > 0
		}
		return stats[i].Category.ID < stats[j].Category.ID
	})

	return CategoryAnalytics{
		Range:            r,
		Type:             typ,
		Total:            total,
		TransactionCount: len(txs),
		Categories:       stats,
	}, nil
}

func trimTransactions(txs []core.Transaction) []RecentTransaction {
	out := make([]RecentTransaction, len(txs))
	for i, tx := range txs {
		out[i] = RecentTransaction{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Type:        tx.Type,
			Date:        tx.Date,
			Description: tx.Description,
		}
	}
	return out
}
