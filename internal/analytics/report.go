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

// ReportOptions configures a custom report. When neither Include flag is set
// both transaction types are reported.
type ReportOptions struct {
	Start          time.Time
	End            time.Time
	GroupBy        aggregate.GroupBy // empty means category
	IncludeIncome  bool
	IncludeExpense bool
	CategoryIDs    []string
}

func (o ReportOptions) filter(r calc.DateRange) store.Filter {
	f := store.Filter{Range: r, CategoryIDs: o.CategoryIDs}
	if o.IncludeIncome {
		f.Types = append(f.Types, core.Income)
	}
	if o.IncludeExpense {
		f.Types = append(f.Types, core.Expense)
	}
	return f
}

// CustomReport groups the selected transactions by category, date or
// payment method. Category and payment method groups are ordered by total
// activity, date groups newest first.
func (s *Service) CustomReport(ctx context.Context, userID string, opts ReportOptions) (Report, error) {
	if err := requireUser(userID); err != nil {
		return Report{}, err
	}
	by, err := aggregate.ParseGroupBy(string(opts.GroupBy))
	if err != nil {
		return Report{}, err
	}
	opts.GroupBy = by
	r, err := s.resolveRange(opts.Start, opts.End)
	if err != nil {
		return Report{}, err
	}

	key := cache.ReportKey(userID, r.Start, r.End, string(by), opts.IncludeIncome, opts.IncludeExpense, opts.CategoryIDs)
	return memo(ctx, s, "report", userID, key, s.ttlFor(r), func(ctx context.Context) (Report, error) {
		return s.computeReport(ctx, userID, r, opts)
	})
}

func (s *Service) computeReport(ctx context.Context, userID string, r calc.DateRange, opts ReportOptions) (Report, error) {
	var (
		txs  []core.Transaction
		cats map[string]core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.FindTransactions(gctx, userID, opts.filter(r))
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.categoryIndex(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("load report data: %w", err)
	}

	// Newest first inside every group.
	aggregate.SortTransactionsByDateDesc(txs)
	buckets, err := aggregate.Group(txs, opts.GroupBy, r.Start.Location())
	if err != nil {
		return Report{}, err
	}

	names := make(map[string]string)
	for _, tx := range txs {
		names[tx.CategoryID] = categoryRef(cats, tx.CategoryID).Name
	}

	groups := make([]ReportGroup, len(buckets))
	for i, b := range buckets {
		groups[i] = ReportGroup{
			Key:          b.Key,
			Label:        b.Label,
			Income:       b.Income,
			Expense:      b.Expense,
			Count:        b.Count,
			Transactions: b.Transactions,
		}
		if opts.GroupBy == aggregate.ByCategoryID {
			ref := categoryRef(cats, b.Key)
			groups[i].Label = ref.Name
			groups[i].Category = &ref
		}
	}

	return Report{
		Range:         r,
		Options:       opts,
		Summary:       summaryOf(aggregate.Summarize(txs)),
		Groups:        groups,
		CategoryNames: names,
	}, nil
}

// ExportHeader names the columns produced by Report.ExportRows.
var ExportHeader = []string{"Group", "Date", "Type", "Category", "Description", "Payment Method", "Amount"}

// ExportRows flattens the report into one row per transaction, in group order.
func (r Report) ExportRows() [][]any {
	var rows [][]any
	for _, g := range r.Groups {
		for _, tx := range g.Transactions {
			category, ok := r.CategoryNames[tx.CategoryID]
			if !ok {
				category = tx.CategoryID
			}
			rows = append(rows, []any{
				g.Label,
				calc.DayKey(tx.Date),
				string(tx.Type),
				category,
				tx.Description,
				aggregate.NormalizePaymentMethod(tx.PaymentMethod),
				tx.Amount.StringFixed(2),
			})
		}
	}
	return rows
}
