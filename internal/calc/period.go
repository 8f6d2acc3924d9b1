// This file implements the period window strategies. Each period type
// (daily, weekly, monthly, yearly) resolves the calendar window containing a
// reference instant. Budget progress and trend bucketing both resolve their
// windows here so the two always agree.

package calc

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Duration returns End - Start.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Previous returns the window of equal length that ends immediately before Start.
func (r DateRange) Previous() DateRange {
	return DateRange{
		Start: r.Start.Add(-r.Duration()),
		End:   r.Start.Add(-time.Nanosecond),
	}
}

// IsZero reports whether either bound is unset.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() || r.End.IsZero()
}

// PeriodWindow is the strategy interface for one period type.
type PeriodWindow interface {
	// Bounds returns the window containing ref, in ref's location.
	Bounds(ref time.Time) DateRange
	// Shift moves ref by n whole periods; n may be negative.
	Shift(ref time.Time, n int) time.Time
	// Label renders a human-readable name for the window starting at start.
	Label(start time.Time) string
}

// DailyWindow covers one calendar day.
type DailyWindow struct{}

func (DailyWindow) Bounds(ref time.Time) DateRange {
	start := startOfDay(ref)
	return DateRange{Start: start, End: endBefore(start.AddDate(0, 0, 1))}
}

func (DailyWindow) Shift(ref time.Time, n int) time.Time { return ref.AddDate(0, 0, n) }

func (DailyWindow) Label(start time.Time) string { return start.Format("Jan 02") }

// WeeklyWindow covers a Sunday-start week.
type WeeklyWindow struct{}

func (WeeklyWindow) Bounds(ref time.Time) DateRange {
	day := startOfDay(ref)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return DateRange{Start: start, End: endBefore(start.AddDate(0, 0, 7))}
}

func (WeeklyWindow) Shift(ref time.Time, n int) time.Time { return ref.AddDate(0, 0, 7*n) }

func (WeeklyWindow) Label(start time.Time) string { return start.Format("Jan 02") }

// MonthlyWindow covers the first to the last calendar day of a month.
type MonthlyWindow struct{}

func (MonthlyWindow) Bounds(ref time.Time) DateRange {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return DateRange{Start: start, End: endBefore(start.AddDate(0, 1, 0))}
}

// Shift anchors on the first of the month so that e.g. Jan 31 + 1 month stays in February.
func (MonthlyWindow) Shift(ref time.Time, n int) time.Time {
	return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, n, 0)
}

func (MonthlyWindow) Label(start time.Time) string { return start.Format("Jan 2006") }

// YearlyWindow covers Jan 1 to Dec 31.
type YearlyWindow struct{}

func (YearlyWindow) Bounds(ref time.Time) DateRange {
	start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
	return DateRange{Start: start, End: endBefore(start.AddDate(1, 0, 0))}
}

func (YearlyWindow) Shift(ref time.Time, n int) time.Time {
	return time.Date(ref.Year()+n, time.January, 1, 0, 0, 0, 0, ref.Location())
}

func (YearlyWindow) Label(start time.Time) string { return start.Format("2006") }

var periodWindows = map[core.Period]PeriodWindow{
	core.Daily:   DailyWindow{},
	core.Weekly:  WeeklyWindow{},
	core.Monthly: MonthlyWindow{},
	core.Yearly:  YearlyWindow{},
}

// Window returns the strategy for period p.
func Window(p core.Period) (PeriodWindow, error) {
	w, ok := periodWindows[p]
	if !ok {
		return nil, core.Invalid("unknown period %q", p)
	}
	return w, nil
}

// Range returns the window of period p containing ref.
func Range(p core.Period, ref time.Time) (DateRange, error) {
	w, err := Window(p)
	if err != nil {
		return DateRange{}, err
	}
	return w.Bounds(ref), nil
}

// Buckets returns n consecutive windows of period p in ascending order, the last one containing ref.
func Buckets(p core.Period, ref time.Time, n int) ([]DateRange, error) {
	w, err := Window(p)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	current := w.Bounds(ref).Start
	out := make([]DateRange, n)
	for i := 0; i < n; i++ {
		out[i] = w.Bounds(w.Shift(current, i-(n-1)))
	}
	return out, nil
}

// MonthRange returns the window of the given calendar month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) DateRange {
	return MonthlyWindow{}.Bounds(time.Date(year, month, 1, 0, 0, 0, 0, loc))
}

// CurrentMonth returns the calendar month containing now.
func CurrentMonth(now time.Time) DateRange {
	return MonthlyWindow{}.Bounds(now)
}

// DayKey formats t as the calendar-day key used by day breakdowns.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// String renders the range for logs and cache keys.
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endBefore(next time.Time) time.Time {
	return next.Add(-time.Nanosecond)
}
