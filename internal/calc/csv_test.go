package calc

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSanitizeCSV(t *testing.T) {
	var nilString *string
	plain := "plain"

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"nil pointer", nilString, ""},
		{"pointer", &plain, "plain"},
		{"plain", "Coffee", "Coffee"},
		{"comma and quote", `Lunch, "extra"`, `"Lunch, ""extra"""`},
		{"newline", "a\nb", "\"a\nb\""},
		{"number", 42, "42"},
		{"decimal", decimal.RequireFromString("150000.50"), "150000.5"},
		{"time", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), "2024-01-03T00:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeCSV(tc.in); got != tc.want {
				t.Errorf("SanitizeCSV(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeCSV_RoundTripWithStandardReader(t *testing.T) {
	original := `Lunch, "extra"`
	line := CSVRow("2024-01-03", original, 150000)

	rec, err := csv.NewReader(strings.NewReader(line + "\n")).Read()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rec) != 3 {
		t.Fatalf("expected 3 fields, got %d: %q", len(rec), rec)
	}
	if rec[1] != original {
		t.Fatalf("round trip = %q, want %q", rec[1], original)
	}
}
