package calc

import (
	"fmt"
	"strings"
	"time"
)

// SanitizeCSV renders v as a single CSV field. Fields containing a comma,
// quote or line break are wrapped in quotes with inner quotes doubled;
// nil renders as the empty string.
func SanitizeCSV(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case *string:
		if x == nil {
			return ""
		}
		s = *x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		s = x.Format(time.RFC3339)
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}

	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// CSVRow sanitizes each value and joins them with commas.
func CSVRow(values ...any) string {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = SanitizeCSV(v)
	}
	return strings.Join(fields, ",")
}
