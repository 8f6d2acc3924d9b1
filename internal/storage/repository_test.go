package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/calc"
	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func seedJanuary(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	ctx := context.Background()
	cats := []core.Category{
		{ID: "salary", UserID: "u1", Name: "Salary", Color: "#00AA00", Type: core.CategoryIncome},
		{ID: "food", UserID: "u1", Name: "Food", Color: "#FF8800", Type: core.CategoryExpense},
	}
	for _, c := range cats {
		if err := repo.CreateCategory(ctx, c); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	txs := []core.Transaction{
		{ID: "t1", UserID: "u1", Amount: decimal.NewFromInt(5000000), CategoryID: "salary", Type: core.Income, Date: day(1), PaymentMethod: "transfer"},
		{ID: "t2", UserID: "u1", Amount: decimal.RequireFromString("150000.25"), CategoryID: "food", Type: core.Expense, Date: day(3), Description: "Lunch at 50% off", PaymentMethod: "card"},
		{ID: "t3", UserID: "u1", Amount: decimal.NewFromInt(50000), CategoryID: "food", Type: core.Expense, Date: day(4)},
		{ID: "t4", UserID: "u2", Amount: decimal.NewFromInt(1), CategoryID: "food", Type: core.Expense, Date: day(4)},
	}
	for _, tx := range txs {
		tx.CreatedAt, tx.UpdatedAt = tx.Date, tx.Date
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}
}

func TestFindTransactions(t *testing.T) {
	repo := newTestRepo(t)
	seedJanuary(t, repo)
	ctx := context.Background()

	all, err := repo.FindTransactions(ctx, "u1", store.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(all))
	}
	if !all[1].Amount.Equal(decimal.RequireFromString("150000.25")) {
		t.Errorf("amount round trip = %s", all[1].Amount)
	}
	if !all[0].Date.Equal(day(1)) {
		t.Errorf("date round trip = %v", all[0].Date)
	}

	tests := []struct {
		name string
		f    store.Filter
		want int
	}{
		{"expenses", store.Filter{Types: []core.TransactionType{core.Expense}}, 2},
		{"category", store.Filter{CategoryIDs: []string{"salary"}}, 1},
		{"range", store.Filter{Range: calc.DateRange{Start: day(2), End: day(3)}}, 1},
		{"literal percent search", store.Filter{Search: "50%"}, 1},
		{"case-insensitive search", store.Filter{Search: "LUNCH"}, 1},
		{"min amount", store.Filter{MinAmount: decimalPtr("100000")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindTransactions(ctx, "u1", tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d transactions, want %d", len(got), tt.want)
			}
		})
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAggregateTransactions(t *testing.T) {
	repo := newTestRepo(t)
	seedJanuary(t, repo)
	ctx := context.Background()
	jan := calc.MonthRange(2024, time.January, time.UTC)

	rows, err := repo.AggregateTransactions(ctx, "u1", store.Filter{Range: jan})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per type, got %+v", rows)
	}
	if rows[0].Type != core.Expense || rows[0].Count != 2 || !rows[0].Sum.Equal(decimal.RequireFromString("200000.25")) {
		t.Errorf("expense row = %+v", rows[0])
	}

	byMethod, err := repo.AggregateTransactions(ctx, "u1", store.Filter{Range: jan}, store.GroupPaymentMethod)
	if err != nil {
		t.Fatal(err)
	}
	methods := map[string]int{}
	for _, r := range byMethod {
		methods[r.PaymentMethod] += r.Count
	}
	if methods["Unknown"] != 1 || methods["card"] != 1 || methods["transfer"] != 1 {
		t.Errorf("payment methods = %v", methods)
	}
}

func TestCategoryConstraints(t *testing.T) {
	repo := newTestRepo(t)
	seedJanuary(t, repo)
	ctx := context.Background()

	dup := core.Category{ID: "food2", UserID: "u1", Name: "Food", Color: "#FF8800", Type: core.CategoryExpense}
	if err := repo.CreateCategory(ctx, dup); !core.IsKind(err, core.KindConflict) {
		t.Fatalf("duplicate name should conflict, got %v", err)
	}

	other := dup
	other.UserID = "u2"
	if err := repo.CreateCategory(ctx, other); err != nil {
		t.Fatalf("same name for another user should be allowed: %v", err)
	}

	if n, err := repo.CountTransactionsByCategory(ctx, "u1", "food"); err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}

	if _, err := repo.FindCategory(ctx, "u2", "salary"); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("cross-user lookup should be not found, got %v", err)
	}

	upd := core.Category{ID: "food", UserID: "u1", Name: "Groceries", Color: "#FF8800", Type: core.CategoryExpense, ParentID: "salary"}
	if err := repo.UpdateCategory(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	if n, _ := repo.CountChildren(ctx, "u1", "salary"); n != 1 {
		t.Fatalf("children = %d", n)
	}
	if err := repo.DeleteCategory(ctx, "u1", "missing"); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("delete missing should be not found, got %v", err)
	}
}

func TestBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	end := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	budgets := []core.Budget{
		{ID: "b1", UserID: "u1", CategoryID: "food", Amount: decimal.NewFromInt(300000), Period: core.Monthly,
			StartDate: day(1), EndDate: &end, NotificationsEnabled: true, CreatedAt: day(1)},
		{ID: "b2", UserID: "u1", Amount: decimal.NewFromInt(1000000), Period: core.Yearly,
			StartDate: day(1), CreatedAt: day(2)},
	}
	for _, b := range budgets {
		if err := repo.CreateBudget(ctx, b); err != nil {
			t.Fatalf("create budget: %v", err)
		}
	}

	got, err := repo.FindBudget(ctx, "u1", "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.EndDate == nil || !got.EndDate.Equal(end) || !got.NotificationsEnabled {
		t.Errorf("budget round trip = %+v", got)
	}

	active, err := repo.FindBudgets(ctx, "u1", store.BudgetFilter{ActiveAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != "b2" {
		t.Fatalf("active in 2025 = %+v", active)
	}

	notify, err := repo.ListNotifiableBudgets(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || len(notify) != 1 || notify[0].ID != "b1" {
		t.Fatalf("notifiable = %+v, %v", notify, err)
	}

	b := got
	b.Amount = decimal.NewFromInt(400000)
	b.EndDate = nil
	if err := repo.UpdateBudget(ctx, b); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.FindBudget(ctx, "u1", "b1")
	if got.EndDate != nil || !got.Amount.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("after update = %+v", got)
	}

	if err := repo.DeleteBudget(ctx, "u2", "b1"); !core.IsKind(err, core.KindNotFound) {
		t.Fatalf("cross-user delete should be not found, got %v", err)
	}
}
