package main

import (
	"fmt"

	"fintrack/internal/aggregate"
	"fintrack/internal/analytics"
	"fintrack/internal/export"
	"fintrack/internal/export/sheets"

	"github.com/spf13/cobra"
)

func reportCmd(a *app) *cobra.Command {
	var (
		from, to, groupBy, format string
		income, expense           bool
		categories                []string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a custom report and print or export it",
		Long: `Report filters transactions by window, type and category, groups them by
category, date or payment method, and writes the result as JSON, CSV, or rows
appended to the Google Sheet named by GOOGLE_SPREADSHEET_ID.

Without --income or --expense both types are included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			by, err := aggregate.ParseGroupBy(groupBy)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := a.analytics.CustomReport(ctx, a.userID, analytics.ReportOptions{
				Start:          start,
				End:            end,
				GroupBy:        by,
				IncludeIncome:  income,
				IncludeExpense: expense,
				CategoryIDs:    categories,
			})
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return printJSON(cmd.OutOrStdout(), res)
			case "csv":
				return export.WriteCSV(cmd.OutOrStdout(), res)
			case "sheets":
				exp, err := sheets.New(ctx, sheets.Config{
					SpreadsheetID: a.cfg.GoogleSpreadsheetID,
					SheetName:     a.cfg.GoogleReportSheetName,
				}, a.logger.Logger)
				if err != nil {
					return fmt.Errorf("sheets exporter: %w", err)
				}
				ref, err := exp.Export(ctx, res)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported report to %s\n", ref)
				return err
			default:
				return fmt.Errorf("invalid --format %q: use json, csv or sheets", format)
			}
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&groupBy, "group-by", string(aggregate.ByCategoryID), "category, date or paymentMethod")
	cmd.Flags().BoolVar(&income, "income", false, "include income")
	cmd.Flags().BoolVar(&expense, "expense", false, "include expenses")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "restrict to these category ids (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, csv, sheets)")
	return cmd
}
