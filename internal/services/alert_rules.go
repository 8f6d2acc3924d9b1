package services

import (
	"fmt"
	"math"

	"fintrack/internal/budget"
)

// AlertRule decides whether a budget's progress warrants an alert and
// renders it. Each status that can alert has its own rule.
type AlertRule interface {
	Alert(p budget.Progress) (title, message string, ok bool)
}

// ExceededRule always alerts.
type ExceededRule struct{}

func (ExceededRule) Alert(p budget.Progress) (string, string, bool) {
	var msg string
	if name, ok := categoryName(p); ok {
		msg = fmt.Sprintf("Your budget for %q has been exceeded. You've spent %s out of %s.",
			name, p.Spent.StringFixed(2), p.Budget.Amount.StringFixed(2))
	} else {
		msg = fmt.Sprintf("Your overall budget has been exceeded. You've spent %s out of %s.",
			p.Spent.StringFixed(2), p.Budget.Amount.StringFixed(2))
	}
	return "Budget Exceeded!", msg, true
}

// WarningRule alerts once usage reaches MinPercent.
type WarningRule struct {
	MinPercent float64
}

func (r WarningRule) Alert(p budget.Progress) (string, string, bool) {
	if !p.Reaches(r.MinPercent) {
		return "", "", false
	}
	used := math.Round(p.RawPercentage)
	var msg string
	if name, ok := categoryName(p); ok {
		msg = fmt.Sprintf("You've used %.0f%% of your budget for %q. Only %s remaining.",
			used, name, p.Remaining.StringFixed(2))
	} else {
		msg = fmt.Sprintf("You've used %.0f%% of your overall budget. Only %s remaining.",
			used, p.Remaining.StringFixed(2))
	}
	return "Budget Warning", msg, true
}

// DefaultAlertRules maps statuses to rules. Safe budgets never alert.
func DefaultAlertRules(warningPercent float64) map[budget.Status]AlertRule {
	return map[budget.Status]AlertRule{
		budget.StatusExceeded: ExceededRule{},
		budget.StatusWarning:  WarningRule{MinPercent: warningPercent},
	}
}

func categoryName(p budget.Progress) (string, bool) {
	if !p.Budget.IsCategoryScoped() {
		return "", false
	}
	if p.Category != nil {
		return p.Category.Name, true
	}
	return p.Budget.CategoryID, true
}
