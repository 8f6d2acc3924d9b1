// Package calc provides the numeric, date and CSV helpers shared by the
// aggregation, analytics and budget packages.
//
// Every function is pure and total: empty inputs and zero denominators yield
// 0 rather than NaN so results can be rendered without further checks.
package calc

import (
	"fmt"
	"math"
	"sort"
)

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

// Average returns the arithmetic mean of xs, or 0 for an empty slice.
func Average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// Median returns the median of xs, or 0 for an empty slice.
// For even-length input it is the mean of the two middle elements.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Percentage returns value as a percentage of total, or 0 when total is 0.
func Percentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return value / total * 100
}

// PercentageChange returns the relative change from previous to current in percent.
// When previous is 0 the result is 100 if current is positive and 0 otherwise.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// RoundToTwo rounds x to two decimal places.
func RoundToTwo(x float64) float64 {
	return math.Round(x*100) / 100
}

// Regression is an ordinary least squares fit of y over x = 0..n-1.
type Regression struct {
	Slope     float64
	Intercept float64
}

// Predict returns the fitted value at x.
func (r Regression) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// LinearRegression fits series against its indices. An empty series yields
// the zero Regression; a degenerate one (single point) yields slope 0 through its mean.
func LinearRegression(series []float64) Regression {
	n := float64(len(series))
	if n == 0 {
		return Regression{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Regression{Intercept: sumY / n}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return Regression{
		Slope:     slope,
		Intercept: (sumY - slope*sumX) / n,
	}
}

// SimpleMovingAverage returns a slice the same length as series where each
// position holds the mean of the trailing window. Positions before the
// window is full are 0.
func SimpleMovingAverage(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	if window <= 0 {
		return out
	}
	for i := range series {
		if i < window-1 {
			continue
		}
		out[i] = Average(series[i-window+1 : i+1])
	}
	return out
}

// FiscalQuarter returns the 1-based calendar quarter of month.
func FiscalQuarter(month int) int {
	return (month-1)/3 + 1
}

// AbbreviateNumber formats n with a K, M or B suffix.
func AbbreviateNumber(n float64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.1fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fK", n/1e3)
	}
	return fmt.Sprintf("%g", n)
}
