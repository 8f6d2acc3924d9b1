package budget

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/cache"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	maxUnbudgetedSuggestions = 3
	progressFanOut           = 4
)

// InsightSummary totals every active budget of a user.
type InsightSummary struct {
	TotalBudgets   int
	TotalBudgeted  decimal.Decimal
	TotalSpent     decimal.Decimal
	TotalRemaining decimal.Decimal
	ExceededCount  int
	WarningCount   int
	SafeCount      int
}

type Insights struct {
	Summary         InsightSummary
	Budgets         []Progress // same order as the store returned the budgets
	Recommendations []string
}

// Insights evaluates every active budget of userID and derives textual
// recommendations from the result.
func (e *Engine) Insights(ctx context.Context, userID string) (Insights, error) {
	if userID == "" {
		return Insights{}, core.Invalid("user id is required")
	}
	key := cache.BudgetInsightsKey(userID)
	return cache.GetOrSet(ctx, e.cache, key, cache.TTLShort, func(ctx context.Context) (Insights, error) {
		return e.computeInsights(ctx, userID)
	})
}

func (e *Engine) computeInsights(ctx context.Context, userID string) (Insights, error) {
	budgets, err := e.Active(ctx, userID)
	if err != nil {
		return Insights{}, err
	}

	var categories []core.Category
	progress := make([]Progress, len(budgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(progressFanOut)
	g.Go(func() error {
		var err error
		categories, err = e.store.ListCategories(gctx, userID)
		return err
	})
	for i, b := range budgets {
		g.Go(func() error {
			p, err := e.Evaluate(gctx, b)
			if err != nil {
				return fmt.Errorf("budget %s: %w", b.ID, err)
			}
			progress[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Insights{}, fmt.Errorf("budget insights: %w", err)
	}

	summary := InsightSummary{
		TotalBudgets:  len(progress),
		TotalBudgeted: decimal.Zero,
		TotalSpent:    decimal.Zero,
	}
	for _, p := range progress {
		summary.TotalBudgeted = summary.TotalBudgeted.Add(p.Budget.Amount)
		summary.TotalSpent = summary.TotalSpent.Add(p.Spent)
		switch p.Status {
		case StatusExceeded:
			summary.ExceededCount++
		case StatusWarning:
			summary.WarningCount++
		default:
			summary.SafeCount++
		}
	}
	summary.TotalRemaining = summary.TotalBudgeted.Sub(summary.TotalSpent)

	return Insights{
		Summary:         summary,
		Budgets:         progress,
		Recommendations: recommend(summary, progress, unbudgeted(categories, budgets)),
	}, nil
}

func recommend(s InsightSummary, progress []Progress, unbudgeted []core.Category) []string {
	recs := []string{}
	if s.ExceededCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"You have %d budget(s) that have been exceeded. Consider reviewing your spending.", s.ExceededCount))
	}
	if s.WarningCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d budget(s) are approaching their limit. Try to reduce spending in these categories.", s.WarningCount))
	}
	if top := topSpending(progress); top != nil {
		recs = append(recs, fmt.Sprintf("Your highest spending is in %q with %s spent.",
			top.Category.Name, top.Spent.StringFixed(2)))
	}
	if len(unbudgeted) > 0 {
		names := make([]string, len(unbudgeted))
		for i, c := range unbudgeted {
			names[i] = c.Name
		}
		recs = append(recs, "Consider creating budgets for: "+strings.Join(names, ", "))
	}
	return recs
}

// topSpending returns the category-scoped budget with the largest positive
// spend, or nil. Ties keep the earlier budget.
func topSpending(progress []Progress) *Progress {
	var top *Progress
	for i := range progress {
		p := &progress[i]
		if p.Category == nil || !p.Spent.IsPositive() {
			continue
		}
		if top == nil || p.Spent.GreaterThan(top.Spent) {
			top = p
		}
	}
	return top
}

// unbudgeted returns up to three expense-capable categories that no active
// budget covers.
func unbudgeted(categories []core.Category, budgets []core.Budget) []core.Category {
	covered := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		if b.IsCategoryScoped() {
			covered[b.CategoryID] = true
		}
	}
	var out []core.Category
	for _, c := range categories {
		if !c.Type.Accepts(core.Expense) || covered[c.ID] {
			continue
		}
		out = append(out, c)
		if len(out) == maxUnbudgetedSuggestions {
			break
		}
	}
	return out
}
