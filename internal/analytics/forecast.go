package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"fintrack/internal/cache"
	"fintrack/internal/calc"
	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
)

const (
	defaultForecastMonths = 3
	historyMonths         = 6
	minConfidence         = 0.5
	confidenceDecay       = 0.1
)

// ForecastOptions sets how many future months to project. Zero means 3.
type ForecastOptions struct {
	Months int
}

// Forecast projects future months from the trailing six months. Expense
// follows average + slope*i where slope is (last - first) / months; income is
// held at its average.
func (s *Service) Forecast(ctx context.Context, userID string, opts ForecastOptions) (Forecast, error) {
	if err := requireUser(userID); err != nil {
		return Forecast{}, err
	}
	months := opts.Months
	if months <= 0 {
		months = defaultForecastMonths
	}

	now := s.now()
	key := cache.ForecastKey(userID, months, calc.CurrentMonth(now).Start)
	return memo(ctx, s, "forecast", userID, key, cache.TTLMedium, func(ctx context.Context) (Forecast, error) {
		return s.computeForecast(ctx, userID, months)
	})
}

type monthTotals struct {
	key     string
	income  decimal.Decimal
	expense decimal.Decimal
}

func (s *Service) computeForecast(ctx context.Context, userID string, months int) (Forecast, error) {
	now := s.now()
	history := calc.DateRange{Start: now.AddDate(0, -historyMonths, 0), End: now}

	txs, err := s.store.FindTransactions(ctx, userID, store.Filter{Range: history})
	if err != nil {
		return Forecast{}, fmt.Errorf("load history: %w", err)
	}

	// Only months that have transactions count towards the averages.
	byMonth := map[string]*monthTotals{}
	for _, tx := range txs {
		k := tx.Date.In(now.Location()).Format("2006-01")
		m, ok := byMonth[k]
		if !ok {
			m = &monthTotals{key: k}
			byMonth[k] = m
		}
		switch tx.Type {
		case core.Income:
			m.income = m.income.Add(tx.Amount)
		case core.Expense:
			m.expense = m.expense.Add(tx.Amount)
		}
	}
	series := make([]*monthTotals, 0, len(byMonth))
	for _, m := range byMonth {
		series = append(series, m)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].key < series[j].key })

	f := Forecast{
		HistoricalMonths: len(series),
		Historical:       history,
		AverageIncome:    decimal.Zero,
		AverageExpense:   decimal.Zero,
		Slope:            decimal.Zero,
		Direction:        Stable,
	}

	if n := len(series); n > 0 {
		count := decimal.NewFromInt(int64(n))
		income, expense := decimal.Zero, decimal.Zero
		expenses := make([]float64, n)
		for i, m := range series {
			income = income.Add(m.income)
			expense = expense.Add(m.expense)
			expenses[i] = m.expense.InexactFloat64()
		}
		f.AverageIncome = income.Div(count).Round(2)
		f.AverageExpense = expense.Div(count).Round(2)
		if n > 1 {
			f.Slope = series[n-1].expense.Sub(series[0].expense).Div(count).Round(2)
		}
		f.RegressionSlope = calc.RoundToTwo(calc.LinearRegression(expenses).Slope)
		f.Direction = directionOf(f.Slope)
	}

	firstOfMonth := calc.CurrentMonth(now).Start
	for i := 1; i <= months; i++ {
		start := calc.MonthlyWindow{}.Shift(firstOfMonth, i)
		expense := f.AverageExpense.Add(f.Slope.Mul(decimal.NewFromInt(int64(i))))
		f.Months = append(f.Months, ForecastMonth{
			Label:            calc.MonthlyWindow{}.Label(start),
			Start:            start,
			ProjectedIncome:  f.AverageIncome,
			ProjectedExpense: expense,
			ProjectedBalance: f.AverageIncome.Sub(expense),
			Confidence:       confidence(i),
		})
	}
	return f, nil
}

// confidence decays by 0.1 per projected month, floored at 0.5.
func confidence(i int) float64 {
	return math.Max(minConfidence, calc.RoundToTwo(1-confidenceDecay*float64(i)))
}
