package cache

import (
	"fmt"
	"strings"
	"time"
)

// Every user-scoped key carries a ":u=<userID>:" segment so UserPattern can
// invalidate it. Free-form segments are escaped so they never contain ':' or
// '*', which keeps one user's pattern from matching another user's keys.

var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A", "*", "%2A")

func user(userID string) string {
	return "u=" + segmentEscaper.Replace(userID)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	return t.UTC().Format("20060102T150405.000000000")
}

// BudgetProgressKey identifies one budget's progress for the period instance
// starting at periodStart.
func BudgetProgressKey(userID, budgetID string, periodStart time.Time) string {
	return fmt.Sprintf("budget:progress:%s:%s:%s", user(userID), segmentEscaper.Replace(budgetID), stamp(periodStart))
}

func BudgetInsightsKey(userID string) string {
	return fmt.Sprintf("budget:insights:%s:all", user(userID))
}

func OverviewKey(userID string, start, end time.Time) string {
	return fmt.Sprintf("analytics:overview:%s:%s:%s", user(userID), stamp(start), stamp(end))
}

func MonthlyKey(userID string, year int, month time.Month) string {
	return fmt.Sprintf("analytics:monthly:%s:%d:%d", user(userID), year, int(month))
}

func CategoryKey(userID string, start, end time.Time, txType string) string {
	if txType == "" {
		txType = "all"
	}
	return fmt.Sprintf("analytics:category:%s:%s:%s:%s", user(userID), stamp(start), stamp(end), segmentEscaper.Replace(txType))
}

func CategoryDetailKey(userID, categoryID string, start, end time.Time) string {
	return fmt.Sprintf("analytics:category_detail:%s:%s:%s:%s", user(userID), segmentEscaper.Replace(categoryID), stamp(start), stamp(end))
}

func TrendsKey(userID, period string, limit int, anchor time.Time) string {
	return fmt.Sprintf("analytics:trends:%s:%s:%d:%s", user(userID), segmentEscaper.Replace(period), limit, stamp(anchor))
}

func ComparisonKey(userID string, p1Start, p1End, p2Start, p2End time.Time) string {
	return fmt.Sprintf("analytics:comparison:%s:%s:%s:%s:%s", user(userID),
		stamp(p1Start), stamp(p1End), stamp(p2Start), stamp(p2End))
}

func ForecastKey(userID string, months int, anchor time.Time) string {
	return fmt.Sprintf("analytics:forecast:%s:%d:%s", user(userID), months, stamp(anchor))
}

func ReportKey(userID string, start, end time.Time, groupBy string, income, expense bool, categoryIDs []string) string {
	cats := "all"
	if len(categoryIDs) > 0 {
		escaped := make([]string, len(categoryIDs))
		for i, id := range categoryIDs {
			escaped[i] = segmentEscaper.Replace(id)
		}
		cats = strings.Join(escaped, ",")
	}
	return fmt.Sprintf("analytics:report:%s:%s:%s:%s:%t:%t:%s", user(userID),
		stamp(start), stamp(end), segmentEscaper.Replace(groupBy), income, expense, cats)
}

// UserPattern matches every key belonging to userID and no other user's.
func UserPattern(userID string) string {
	return "*:" + user(userID) + ":*"
}
