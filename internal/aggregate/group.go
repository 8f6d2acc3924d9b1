package aggregate

import (
	"sort"
	"strings"
	"time"

	"fintrack/internal/calc"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// UnknownPaymentMethod is the bucket for transactions without a payment method.
const UnknownPaymentMethod = "Unknown"

// GroupBy is the closed set of breakdown dimensions.
type GroupBy string

const (
	ByCategoryID     GroupBy = "category"
	ByDate           GroupBy = "date"
	ByPaymentMethods GroupBy = "paymentMethod"
)

// ParseGroupBy maps user input to a GroupBy, defaulting to category when empty.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "":
		return ByCategoryID, nil
	case ByCategoryID, ByDate, ByPaymentMethods:
		return GroupBy(s), nil
	}
	return "", core.Invalid("unknown group by %q", s)
}

// Bucket is the common accumulator shape for every breakdown.
type Bucket struct {
	Key          string
	Label        string
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Count        int
	Transactions []core.Transaction
}

// Activity is income plus expense, used to rank buckets.
func (b Bucket) Activity() decimal.Decimal {
	return b.Income.Add(b.Expense)
}

func (b *Bucket) add(tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		b.Income = b.Income.Add(tx.Amount)
	case core.Expense:
		b.Expense = b.Expense.Add(tx.Amount)
	}
	b.Count++
	b.Transactions = append(b.Transactions, tx)
}

// Group dispatches to the reducer for by and applies that dimension's
// ordering: category and payment method by activity descending, dates by
// day descending. Day keys are computed in loc; a nil loc keeps each
// transaction's own location.
func Group(txs []core.Transaction, by GroupBy, loc *time.Location) ([]Bucket, error) {
	switch by {
	case ByCategoryID:
		b := ByCategory(txs)
		SortByActivity(b)
		return b, nil
	case ByDate:
		b := ByDay(txs, loc)
		SortByKeyDesc(b)
		return b, nil
	case ByPaymentMethods:
		b := ByPaymentMethod(txs)
		SortByActivity(b)
		return b, nil
	}
	return nil, core.Invalid("unknown group by %q", by)
}

// ByCategory groups by category id, in first-seen order.
func ByCategory(txs []core.Transaction) []Bucket {
	return reduce(txs, func(tx core.Transaction) string { return tx.CategoryID })
}

// ByDay groups by calendar day ("2006-01-02"), in first-seen order.
func ByDay(txs []core.Transaction, loc *time.Location) []Bucket {
	return reduce(txs, func(tx core.Transaction) string {
		d := tx.Date
		if loc != nil {
			d = d.In(loc)
		}
		return calc.DayKey(d)
	})
}

// ByPaymentMethod groups by normalized payment method, in first-seen order.
func ByPaymentMethod(txs []core.Transaction) []Bucket {
	return reduce(txs, func(tx core.Transaction) string { return NormalizePaymentMethod(tx.PaymentMethod) })
}

// NormalizePaymentMethod trims the label and maps empty values to UnknownPaymentMethod.
func NormalizePaymentMethod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownPaymentMethod
	}
	return s
}

func reduce(txs []core.Transaction, keyOf func(core.Transaction) string) []Bucket {
	index := make(map[string]int)
	var out []Bucket
	for _, tx := range txs {
		k := keyOf(tx)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Bucket{Key: k, Label: k})
		}
		out[i].add(tx)
	}
	return out
}

// SortByActivity orders buckets by income+expense descending, then key.
func SortByActivity(b []Bucket) {
	sort.SliceStable(b, func(i, j int) bool {
		if c := b[i].Activity().Cmp(b[j].Activity()); c != 0 {
			return c > 0
		}
		return b[i].Key < b[j].Key
	})
}

// SortByKeyDesc orders buckets by key descending. Date keys sort chronologically.
func SortByKeyDesc(b []Bucket) {
	sort.SliceStable(b, func(i, j int) bool { return b[i].Key > b[j].Key })
}

// SortTransactionsByDateDesc orders the slice newest first.
func SortTransactionsByDateDesc(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
}
