package aggregate

import (
	"sort"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type sumKey struct {
	typ           core.TransactionType
	categoryID    string
	paymentMethod string
}

// Sums reduces txs to store aggregates grouped by type plus keys. It is the
// in-memory counterpart of a SQL GROUP BY and orders rows the same way.
func Sums(txs []core.Transaction, keys ...store.GroupKey) []store.Aggregate {
	var byCategory, byMethod bool
	for _, k := range keys {
		switch k {
		case store.GroupCategory:
			byCategory = true
		case store.GroupPaymentMethod:
			byMethod = true
		}
	}

	index := make(map[sumKey]int)
	var out []store.Aggregate
	for _, tx := range txs {
		k := sumKey{typ: tx.Type}
		if byCategory {
			k.categoryID = tx.CategoryID
		}
		if byMethod {
			k.paymentMethod = NormalizePaymentMethod(tx.PaymentMethod)
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, store.Aggregate{Type: k.typ, CategoryID: k.categoryID, PaymentMethod: k.paymentMethod})
		}
		out[i].Sum = out[i].Sum.Add(tx.Amount)
		out[i].Count++
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].PaymentMethod < out[j].PaymentMethod
	})
	return out
}
