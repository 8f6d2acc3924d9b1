package analytics

import (
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/calc"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// CategoryRef carries a category's display fields.
type CategoryRef struct {
	ID    string
	Name  string
	Icon  string
	Color string
	Type  core.CategoryType
}

// Summary is the shared totals block. Balance is always Income - Expense.
type Summary struct {
	Income           decimal.Decimal
	Expense          decimal.Decimal
	Balance          decimal.Decimal
	IncomeCount      int
	ExpenseCount     int
	TransactionCount int
}

func summaryOf(t aggregate.Totals) Summary {
	return Summary{
		Income:           t.Income,
		Expense:          t.Expense,
		Balance:          t.Balance(),
		IncomeCount:      t.IncomeCount,
		ExpenseCount:     t.ExpenseCount,
		TransactionCount: t.Count(),
	}
}

// CategoryAmount is one ranked category total.
type CategoryAmount struct {
	Category CategoryRef
	Amount   decimal.Decimal
	Count    int
}

type Overview struct {
	Range          calc.DateRange
	Summary        Summary
	AverageIncome  decimal.Decimal // per income transaction
	AverageExpense decimal.Decimal // per expense transaction
	TopCategories  []CategoryAmount
	PreviousRange  calc.DateRange
	Previous       Summary
	IncomeChange   float64
	ExpenseChange  float64
}

// DailyPoint is one calendar day of a Monthly result.
type DailyPoint struct {
	Date             string // 2006-01-02
	Income           decimal.Decimal
	Expense          decimal.Decimal
	Balance          decimal.Decimal
	TransactionCount int
}

// Breakdown is one group of a breakdown with income and expense kept apart.
type Breakdown struct {
	Key      string
	Label    string
	Category *CategoryRef // set for category breakdowns
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Count    int
}

type Monthly struct {
	Year           int
	Month          time.Month
	Range          calc.DateRange
	Summary        Summary
	Days           []DailyPoint
	Categories     []Breakdown
	PaymentMethods []Breakdown
}

// RecentTransaction is the trimmed view of a transaction inside a category result.
type RecentTransaction struct {
	ID          string
	Amount      decimal.Decimal
	Type        core.TransactionType
	Date        time.Time
	Description string
}

type CategoryStats struct {
	Category      CategoryRef
	Income        decimal.Decimal
	Expense       decimal.Decimal
	Total         decimal.Decimal // Income + Expense
	Count         int
	AverageAmount decimal.Decimal
	Percentage    float64 // share of the period total
	Recent        []RecentTransaction
}

// CategoryDetail is the per-category drill-down. TotalAmount is gross
// activity; Income and Expense stay separate.
type CategoryDetail struct {
	Category         CategoryRef
	Range            calc.DateRange // zero sides are open
	Income           decimal.Decimal
	Expense          decimal.Decimal
	TotalAmount      decimal.Decimal
	TransactionCount int
	Recent           []RecentTransaction
}

type CategoryAnalytics struct {
	Range            calc.DateRange
	Type             core.TransactionType // empty means both
	Total            decimal.Decimal
	TransactionCount int
	Categories       []CategoryStats
}

// TrendDirection classifies a series.
type TrendDirection string

const (
	Increasing TrendDirection = "increasing"
	Decreasing TrendDirection = "decreasing"
	Stable     TrendDirection = "stable"
)

func directionOf(d decimal.Decimal) TrendDirection {
	switch d.Sign() {
	case 1:
		return Increasing
	case -1:
		return Decreasing
	}
	return Stable
}

// TrendBucket is one period instance in a trend series.
type TrendBucket struct {
	Label            string
	Range            calc.DateRange
	Income           decimal.Decimal
	Expense          decimal.Decimal
	Balance          decimal.Decimal
	TransactionCount int
}

type Trends struct {
	Period           core.Period
	Buckets          []TrendBucket // ascending, the last one contains now
	Direction        TrendDirection
	ChangePercentage float64
	AverageIncome    decimal.Decimal
	AverageExpense   decimal.Decimal
	ExpenseMovingAvg []float64 // 3-bucket simple moving average of expenses
}

// PeriodStats is the per-range block of a Comparison.
type PeriodStats struct {
	Range              calc.DateRange
	Summary            Summary
	AverageTransaction decimal.Decimal
	TopCategory        *CategoryAmount // nil when the period has no expenses
}

type Changes struct {
	Income             float64
	Expense            float64
	Balance            float64
	TransactionCount   float64
	AverageTransaction float64
}

type Comparison struct {
	Period1 PeriodStats
	Period2 PeriodStats
	Change  Changes // from Period2 to Period1
}

type ForecastMonth struct {
	Label            string // Jan 2006
	Start            time.Time
	ProjectedIncome  decimal.Decimal
	ProjectedExpense decimal.Decimal
	ProjectedBalance decimal.Decimal
	Confidence       float64
}

type Forecast struct {
	HistoricalMonths int
	Historical       calc.DateRange
	AverageIncome    decimal.Decimal
	AverageExpense   decimal.Decimal
	Slope            decimal.Decimal // (last - first) / months
	RegressionSlope  float64         // least squares over the same series
	Direction        TrendDirection
	Months           []ForecastMonth
}

// ReportGroup is one bucket of a custom report.
type ReportGroup struct {
	Key          string
	Label        string
	Category     *CategoryRef
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Count        int
	Transactions []core.Transaction
}

type Report struct {
	Range         calc.DateRange
	Options       ReportOptions
	Summary       Summary
	Groups        []ReportGroup
	CategoryNames map[string]string // category id -> name for every reported transaction
}
