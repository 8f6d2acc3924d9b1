package aggregate

import (
	"testing"
	"time"

	"fintrack/internal/calc"
	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
)

func tx(id string, typ core.TransactionType, amount string, cat string, day int, method string) core.Transaction {
	return core.Transaction{
		ID:            id,
		UserID:        "u1",
		Amount:        decimal.RequireFromString(amount),
		CategoryID:    cat,
		Type:          typ,
		Date:          time.Date(2024, 1, day, 10, 0, 0, 0, time.UTC),
		Description:   "item " + id,
		PaymentMethod: method,
	}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx("1", core.Income, "5000000", "salary", 1, "transfer"),
		tx("2", core.Expense, "150000", "food", 3, "card"),
		tx("3", core.Expense, "50000", "food", 4, ""),
		tx("4", core.Income, "20000", "food", 4, " card "),
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(sample()[:3])

	if !got.Income.Equal(decimal.NewFromInt(5000000)) {
		t.Errorf("income = %s", got.Income)
	}
	if !got.Expense.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("expense = %s", got.Expense)
	}
	if !got.Balance().Equal(decimal.NewFromInt(4800000)) {
		t.Errorf("balance = %s", got.Balance())
	}
	if got.Count() != 3 || got.IncomeCount != 1 || got.ExpenseCount != 2 {
		t.Errorf("counts = %d/%d/%d", got.Count(), got.IncomeCount, got.ExpenseCount)
	}
}

func TestMatch(t *testing.T) {
	lo := decimal.NewFromInt(60000)
	hi := decimal.NewFromInt(200000)
	base := tx("2", core.Expense, "150000", "food", 3, "card")
	base.Description = "Groceries at Market"

	tests := []struct {
		name string
		f    store.Filter
		want bool
	}{
		{"empty filter", store.Filter{}, true},
		{"type match", store.Filter{Types: []core.TransactionType{core.Expense}}, true},
		{"type mismatch", store.Filter{Types: []core.TransactionType{core.Income}}, false},
		{"category allowlist", store.Filter{CategoryIDs: []string{"rent", "food"}}, true},
		{"category excluded", store.Filter{CategoryIDs: []string{"rent"}}, false},
		{"range inclusive end", store.Filter{Range: calc.DateRange{End: base.Date}}, true},
		{"before range", store.Filter{Range: calc.DateRange{Start: base.Date.Add(time.Second)}}, false},
		{"amount in range", store.Filter{MinAmount: &lo, MaxAmount: &hi}, true},
		{"amount below min", store.Filter{MinAmount: &hi}, false},
		{"search case-insensitive", store.Filter{Search: "market"}, true},
		{"search miss", store.Filter{Search: "fuel"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.f, base); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestByCategory_KeepsIncomeAndExpenseSeparate(t *testing.T) {
	buckets := ByCategory(sample())
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	food := buckets[1]
	if food.Key != "food" {
		t.Fatalf("second bucket = %q", food.Key)
	}
	if !food.Income.Equal(decimal.NewFromInt(20000)) || !food.Expense.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("food income=%s expense=%s", food.Income, food.Expense)
	}
	if food.Count != 3 || len(food.Transactions) != 3 {
		t.Errorf("food count = %d", food.Count)
	}
}

func TestByPaymentMethod_Unknown(t *testing.T) {
	buckets := ByPaymentMethod(sample())
	keys := map[string]int{}
	for _, b := range buckets {
		keys[b.Key] = b.Count
	}
	if keys[UnknownPaymentMethod] != 1 {
		t.Errorf("unknown bucket count = %d", keys[UnknownPaymentMethod])
	}
	if keys["card"] != 2 {
		t.Errorf("card bucket should merge trimmed labels, got %d", keys["card"])
	}
}

func TestGroup_Ordering(t *testing.T) {
	byDate, err := Group(sample(), ByDate, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2024-01-04", "2024-01-03", "2024-01-01"}
	for i, k := range want {
		if byDate[i].Key != k {
			t.Errorf("date bucket %d = %s, want %s", i, byDate[i].Key, k)
		}
	}

	byCat, err := Group(sample(), ByCategoryID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if byCat[0].Key != "salary" {
		t.Errorf("highest activity first, got %s", byCat[0].Key)
	}

	if _, err := Group(sample(), GroupBy("weekday"), nil); !core.IsKind(err, core.KindValidation) {
		t.Errorf("unknown group by should be a validation error, got %v", err)
	}
}

func TestParseGroupBy(t *testing.T) {
	if g, err := ParseGroupBy(""); err != nil || g != ByCategoryID {
		t.Errorf("default = %v, %v", g, err)
	}
	if g, err := ParseGroupBy("paymentMethod"); err != nil || g != ByPaymentMethods {
		t.Errorf("paymentMethod = %v, %v", g, err)
	}
	if _, err := ParseGroupBy("nope"); err == nil {
		t.Error("expected error")
	}
}

func TestSums(t *testing.T) {
	rows := Sums(sample(), store.GroupCategory)
	total := FromAggregates(rows)
	direct := Summarize(sample())

	if !total.Income.Equal(direct.Income) || !total.Expense.Equal(direct.Expense) {
		t.Fatalf("aggregate totals differ: %+v vs %+v", total, direct)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (expense/food, income/food, income/salary), got %d", len(rows))
	}
	if rows[0].Type != core.Expense || rows[0].CategoryID != "food" || rows[0].Count != 2 {
		t.Errorf("first row = %+v", rows[0])
	}
}
