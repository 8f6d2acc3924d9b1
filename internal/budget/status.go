package budget

import "github.com/shopspring/decimal"

// Status classifies how much of a budget has been used.
type Status string

const (
	StatusSafe     Status = "safe"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// Usage thresholds, in percent of the budget amount.
const (
	WarningPercent  = 80.0
	ExceededPercent = 100.0
)

var hundred = decimal.NewFromInt(100)

// Classify maps an uncapped usage percentage to a Status.
func Classify(percentage float64) Status {
	switch {
	case percentage >= ExceededPercent:
		return StatusExceeded
	case percentage >= WarningPercent:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// StatusOf classifies spent against a positive amount without rounding, so
// a budget with any money left is never exceeded.
func StatusOf(spent, amount decimal.Decimal) Status {
	switch {
	case Reaches(spent, amount, ExceededPercent):
		return StatusExceeded
	case Reaches(spent, amount, WarningPercent):
		return StatusWarning
	default:
		return StatusSafe
	}
}

// Reaches reports whether spent is at least percent of amount.
func Reaches(spent, amount decimal.Decimal, percent float64) bool {
	return spent.Mul(hundred).GreaterThanOrEqual(amount.Mul(decimal.NewFromFloat(percent)))
}

// DisplayPercentage caps percentage at 100 for presentation.
func DisplayPercentage(percentage float64) float64 {
	if percentage > ExceededPercent {
		return ExceededPercent
	}
	return percentage
}
