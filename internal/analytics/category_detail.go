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

const recentInDetail = 10

// CategoryDetailOptions bounds the detail window. A zero Start or End leaves
// that side open.
type CategoryDetailOptions struct {
	Start time.Time
	End   time.Time
}

// CategoryDetail reports one category's totals and its latest transactions.
// A category that is missing or owned by another user is not found.
func (s *Service) CategoryDetail(ctx context.Context, userID, categoryID string, opts CategoryDetailOptions) (CategoryDetail, error) {
	if err := requireUser(userID); err != nil {
		return CategoryDetail{}, err
	}
	if categoryID == "" {
		return CategoryDetail{}, core.Invalid("category id is required")
	}
	r := calc.DateRange{Start: opts.Start, End: opts.End}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return CategoryDetail{}, core.Invalid("end date %s is before start date %s",
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}

	ttl := cache.TTLShort
	if !r.End.IsZero() {
		ttl = s.ttlFor(r)
	}
	key := cache.CategoryDetailKey(userID, categoryID, r.Start, r.End)
	return memo(ctx, s, "category_detail", userID, key, ttl, func(ctx context.Context) (CategoryDetail, error) {
		return s.computeCategoryDetail(ctx, userID, categoryID, r)
	})
}

func (s *Service) computeCategoryDetail(ctx context.Context, userID, categoryID string, r calc.DateRange) (CategoryDetail, error) {
	c, err := s.store.FindCategory(ctx, userID, categoryID)
	if err != nil {
		return CategoryDetail{}, err
	}

	f := store.Filter{CategoryIDs: []string{categoryID}, Range: r}
	var (
		rows []store.Aggregate
		txs  []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.store.AggregateTransactions(gctx, userID, f)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.FindTransactions(gctx, userID, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return CategoryDetail{}, fmt.Errorf("load category detail: %w", err)
	}

	totals := aggregate.FromAggregates(rows)
	aggregate.SortTransactionsByDateDesc(txs)
	if len(txs) > recentInDetail {
		txs = txs[:recentInDetail]
	}

	return CategoryDetail{
		Category:         categoryRef(map[string]core.Category{c.ID: c}, c.ID),
		Range:            r,
		Income:           totals.Income,
		Expense:          totals.Expense,
		TotalAmount:      totals.Income.Add(totals.Expense),
		TransactionCount: totals.Count(),
		Recent:           trimTransactions(txs),
	}, nil
}
