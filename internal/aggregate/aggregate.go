// Package aggregate holds the in-memory reducers shared by the analytics
// pipelines and the memory backend. Income and expense are always kept in
// separate accumulators; nothing here nets one against the other inside a
// group.
package aggregate

import (
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
)

// Totals is the top-level summary of a transaction set.
type Totals struct {
	Income       decimal.Decimal
	Expense      decimal.Decimal
	IncomeCount  int
	ExpenseCount int
}

// Balance is income minus expense.
func (t Totals) Balance() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Count is the number of transactions of either type.
func (t Totals) Count() int {
	return t.IncomeCount + t.ExpenseCount
}

// Add folds one transaction into t.
func (t *Totals) Add(tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		t.Income = t.Income.Add(tx.Amount)
		t.IncomeCount++
	case core.Expense:
		t.Expense = t.Expense.Add(tx.Amount)
		t.ExpenseCount++
	}
}

// AddAggregate folds a pre-grouped store sum into t.
func (t *Totals) AddAggregate(a store.Aggregate) {
	switch a.Type {
	case core.Income:
		t.Income = t.Income.Add(a.Sum)
		t.IncomeCount += a.Count
	case core.Expense:
		t.Expense = t.Expense.Add(a.Sum)
		t.ExpenseCount += a.Count
	}
}

// Summarize totals a transaction slice.
func Summarize(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		t.Add(tx)
	}
	return t
}

// FromAggregates totals a set of store aggregates.
func FromAggregates(rows []store.Aggregate) Totals {
	var t Totals
	for _, r := range rows {
		t.AddAggregate(r)
	}
	return t
}

// Match reports whether tx satisfies every constraint in f.
func Match(f store.Filter, tx core.Transaction) bool {
	if len(f.Types) > 0 && !containsType(f.Types, tx.Type) {
		return false
	}
	if len(f.CategoryIDs) > 0 && !containsString(f.CategoryIDs, tx.CategoryID) {
		return false
	}
	if !f.Range.Start.IsZero() && tx.Date.Before(f.Range.Start) {
		return false
	}
	if !f.Range.End.IsZero() && tx.Date.After(f.Range.End) {
		return false
	}
	if f.MinAmount != nil && tx.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && tx.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(tx.Description), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Apply returns the transactions in txs that match f, preserving order.
func Apply(f store.Filter, txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if Match(f, tx) {
			out = append(out, tx)
		}
	}
	return out
}

func containsType(list []core.TransactionType, t core.TransactionType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
