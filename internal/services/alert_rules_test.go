package services

import (
	"strings"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

var amqpAlert = amqp.BudgetAlertMessage{UserID: user, BudgetID: "b1", Status: "warning", Title: "Budget Warning"}

func progress(categoryID string, spent int64, raw float64) budget.Progress {
	b := core.Budget{ID: "b1", CategoryID: categoryID, Amount: decimal.NewFromInt(1000)}
	p := budget.Progress{
		Budget:        b,
		Spent:         decimal.NewFromInt(spent),
		Remaining:     b.Amount.Sub(decimal.NewFromInt(spent)),
		RawPercentage: raw,
		Percentage:    budget.DisplayPercentage(raw),
		Status:        budget.Classify(raw),
	}
	if categoryID == "food" {
		p.Category = &core.Category{ID: "food", Name: "Food"}
	}
	return p
}

func TestWarningRule(t *testing.T) {
	rule := WarningRule{MinPercent: 90}

	tests := []struct {
		name    string
		p       budget.Progress
		fires   bool
		message string
	}{
		{"below threshold", progress("food", 850, 85), false, ""},
		{"at threshold", progress("food", 900, 90), true, `You've used 90% of your budget for "Food". Only 100.00 remaining.`},
		{"whole account", progress("", 925, 92.5), true, "You've used 93% of your overall budget. Only 75.00 remaining."},
		{"category not loaded", progress("gone", 950, 95), true, `budget for "gone"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, msg, ok := rule.Alert(tt.p)
			if ok != tt.fires {
				t.Fatalf("fires = %v, want %v", ok, tt.fires)
			}
			if !ok {
				return
			}
			if title != "Budget Warning" {
				t.Errorf("title = %q", title)
			}
			if !strings.Contains(msg, tt.message) {
				t.Errorf("message = %q, want it to contain %q", msg, tt.message)
			}
		})
	}
}

func TestWarningRule_UsesExactSpend(t *testing.T) {
	b := core.Budget{ID: "b1", CategoryID: "food", Amount: decimal.NewFromInt(1000)}
	spent := decimal.RequireFromString("899.99")
	p := budget.Progress{
		Budget:        b,
		Spent:         spent,
		Remaining:     b.Amount.Sub(spent),
		RawPercentage: 90, // rounded from 89.999
		Percentage:    90,
		Status:        budget.StatusOf(spent, b.Amount),
	}
	if _, _, ok := (WarningRule{MinPercent: 90}).Alert(p); ok {
		t.Error("899.99 of 1000 is below 90 percent and must not alert")
	}
}

func TestExceededRule(t *testing.T) {
	title, msg, ok := ExceededRule{}.Alert(progress("food", 1500, 150))
	if !ok || title != "Budget Exceeded!" {
		t.Fatalf("Alert = %q, %v", title, ok)
	}
	want := `Your budget for "Food" has been exceeded. You've spent 1500.00 out of 1000.00.`
	if msg != want {
		t.Errorf("message = %q, want %q", msg, want)
	}
}

func TestDefaultAlertRules_SafeNeverAlerts(t *testing.T) {
	rules := DefaultAlertRules(90)
	if _, ok := rules[budget.StatusSafe]; ok {
		t.Error("safe budgets must not have a rule")
	}
	if r, ok := rules[budget.StatusWarning].(WarningRule); !ok || r.MinPercent != 90 {
		t.Errorf("warning rule = %#v", rules[budget.StatusWarning])
	}
}
