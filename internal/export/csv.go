// Package export renders custom reports for consumption outside the engine.
package export

import (
	"bufio"
	"fmt"
	"io"

	"fintrack/internal/analytics"
	"fintrack/internal/calc"
)

// WriteCSV writes the report as CSV: one header line, then one line per
// transaction in group order.
func WriteCSV(w io.Writer, r analytics.Report) error {
	bw := bufio.NewWriter(w)

	header := make([]any, len(analytics.ExportHeader))
	for i, h := range analytics.ExportHeader {
		header[i] = h
	}
	if _, err := fmt.Fprintln(bw, calc.CSVRow(header...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range r.ExportRows() {
		if _, err := fmt.Fprintln(bw, calc.CSVRow(row...)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return bw.Flush()
}
