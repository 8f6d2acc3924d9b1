package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store/memory"

	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func TestCategoryService_Create(t *testing.T) {
	s := memory.New()
	seedCategories(t, s,
		core.Category{ID: "food", Name: "Food", Type: core.CategoryExpense},
		core.Category{ID: "foreign", UserID: "u2", Name: "Foreign", Type: core.CategoryExpense},
	)
	svc := NewCategoryService(s, nil, quietLogger())

	tests := []struct {
		name string
		in   CategoryInput
		kind core.Kind
	}{
		{"valid child", CategoryInput{Name: " Groceries ", Color: "#00FF00", Type: core.CategoryExpense, ParentID: "food"}, ""},
		{"empty name", CategoryInput{Name: "  ", Color: "#00FF00", Type: core.CategoryExpense}, core.KindValidation},
		{"bad color", CategoryInput{Name: "Bills", Color: "green", Type: core.CategoryExpense}, core.KindValidation},
		{"bad type", CategoryInput{Name: "Bills", Color: "#00FF00", Type: "transfer"}, core.KindValidation},
		{"duplicate name", CategoryInput{Name: "Food", Color: "#00FF00", Type: core.CategoryExpense}, core.KindConflict},
		{"missing parent", CategoryInput{Name: "Snacks", Color: "#00FF00", Type: core.CategoryExpense, ParentID: "nope"}, core.KindNotFound},
		{"parent of another user", CategoryInput{Name: "Snacks", Color: "#00FF00", Type: core.CategoryExpense, ParentID: "foreign"}, core.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := svc.Create(context.Background(), user, tt.in)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if c.ID == "" || c.Name != "Groceries" || c.UserID != user {
					t.Errorf("created = %+v", c)
				}
				return
			}
			if !core.IsKind(err, tt.kind) {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestCategoryService_UpdateRejectsCycles(t *testing.T) {
	s := memory.New()
	seedCategories(t, s,
		core.Category{ID: "a", Name: "A", Type: core.CategoryExpense},
		core.Category{ID: "b", Name: "B", Type: core.CategoryExpense, ParentID: "a"},
		core.Category{ID: "c", Name: "C", Type: core.CategoryExpense, ParentID: "b"},
		core.Category{ID: "d", Name: "D", Type: core.CategoryExpense},
	)
	inv := &countingInvalidator{}
	svc := NewCategoryService(s, inv, quietLogger())
	ctx := context.Background()

	tests := []struct {
		name   string
		id     string
		parent string
		kind   core.Kind
	}{
		{"self parent", "a", "a", core.KindValidation},
		{"direct cycle", "a", "b", core.KindValidation},
		{"indirect cycle", "a", "c", core.KindValidation},
		{"missing parent", "d", "zzz", core.KindNotFound},
		{"valid move", "d", "c", ""},
		{"back to top level", "c", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, user, tt.id, CategoryPatch{ParentID: ptr(tt.parent)})
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !core.IsKind(err, tt.kind) {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
		})
	}

	a, err := s.FindCategory(ctx, user, "a")
	if err != nil {
		t.Fatal(err)
	}
	if a.ParentID != "" {
		t.Errorf("rejected updates must not be persisted, a.ParentID = %q", a.ParentID)
	}
	if inv.calls[user] != 2 {
		t.Errorf("invalidations = %d, want 2", inv.calls[user])
	}
}

func TestCategoryService_UpdateFields(t *testing.T) {
	s := memory.New()
	seedCategories(t, s,
		core.Category{ID: "a", Name: "A", Type: core.CategoryExpense},
		core.Category{ID: "b", Name: "B", Type: core.CategoryExpense},
	)
	svc := NewCategoryService(s, nil, quietLogger())
	ctx := context.Background()

	got, err := svc.Update(ctx, user, "a", CategoryPatch{Name: ptr("Renamed"), Type: ptr(core.CategoryBoth)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Renamed" || got.Type != core.CategoryBoth || got.Color != "#112233" {
		t.Errorf("updated = %+v", got)
	}

	if _, err := svc.Update(ctx, user, "a", CategoryPatch{Name: ptr("B")}); !core.IsKind(err, core.KindConflict) {
		t.Errorf("rename onto existing name: %v", err)
	}
	if _, err := svc.Update(ctx, "u2", "a", CategoryPatch{Name: ptr("X")}); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("cross-user update: %v", err)
	}
}

func TestCategoryService_UpdateTypeKeepsTransactionsCompatible(t *testing.T) {
	s := memory.New()
	seedCategories(t, s,
		core.Category{ID: "mixed", Name: "Mixed", Type: core.CategoryBoth},
		core.Category{ID: "empty", Name: "Empty", Type: core.CategoryBoth},
	)
	spend(t, s, "mixed", 50)
	svc := NewCategoryService(s, nil, quietLogger())
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		to      core.CategoryType
		wantErr bool
	}{
		{"expense category cannot become income", "mixed", core.CategoryIncome, true},
		{"narrowing to the used type", "mixed", core.CategoryExpense, false},
		{"widening back to both", "mixed", core.CategoryBoth, false},
		{"unused category may change freely", "empty", core.CategoryIncome, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, user, tt.id, CategoryPatch{Type: ptr(tt.to)})
			if tt.wantErr {
				if !core.IsKind(err, core.KindValidation) {
					t.Fatalf("error = %v, want validation", err)
				}
				if c, _ := s.FindCategory(ctx, user, tt.id); c.Type == tt.to {
					t.Errorf("rejected type change was persisted")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCategoryService_Delete(t *testing.T) {
	s := memory.New()
	seedCategories(t, s,
		core.Category{ID: "used", Name: "Used", Type: core.CategoryExpense},
		core.Category{ID: "parent", Name: "Parent", Type: core.CategoryExpense},
		core.Category{ID: "child", Name: "Child", Type: core.CategoryExpense, ParentID: "parent"},
		core.Category{ID: "free", Name: "Free", Type: core.CategoryExpense},
	)
	err := s.CreateTransaction(context.Background(), core.Transaction{
		ID: "t1", UserID: user, Amount: decimal.NewFromInt(5), CategoryID: "used",
		Type: core.Expense, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	svc := NewCategoryService(s, nil, quietLogger())
	ctx := context.Background()

	tests := []struct {
		id   string
		kind core.Kind
	}{
		{"used", core.KindPreconditionFailed},
		{"parent", core.KindPreconditionFailed},
		{"missing", core.KindNotFound},
		{"free", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := svc.Delete(ctx, user, tt.id)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if _, err := s.FindCategory(ctx, user, tt.id); !core.IsKind(err, core.KindNotFound) {
					t.Errorf("category should be gone, got %v", err)
				}
				return
			}
			if !core.IsKind(err, tt.kind) {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}
