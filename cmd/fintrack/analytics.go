package main

import (
	"fmt"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"

	"github.com/spf13/cobra"
)

func overviewCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Totals, top expense categories and change versus the previous window",
		Long: `Overview totals income and expense for a window (default: the current
month), lists the five largest expense categories and compares against the
preceding window of equal length.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			res, err := a.analytics.Overview(cmd.Context(), a.userID, analytics.OverviewOptions{Start: start, End: end})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end, inclusive (YYYY-MM-DD)")
	return cmd
}

func monthlyCmd(a *app) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Daily series and breakdowns for one calendar month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.analytics.Monthly(cmd.Context(), a.userID, analytics.MonthlyOptions{
				Year:  year,
				Month: time.Month(month),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	now := time.Now()
	cmd.Flags().IntVar(&year, "year", now.Year(), "calendar year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month number (1-12)")
	return cmd
}

func categoriesCmd(a *app) *cobra.Command {
	var from, to, txType string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Per-category totals, shares and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			typ := core.TransactionType(txType)
			if typ != "" && !typ.Valid() {
				return fmt.Errorf("invalid --type %q: use income or expense", txType)
			}
			res, err := a.analytics.Categories(cmd.Context(), a.userID, analytics.CategoryOptions{
				Start: start,
				End:   end,
				Type:  typ,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&txType, "type", "", "restrict to income or expense")
	return cmd
}

func trendsCmd(a *app) *cobra.Command {
	var period string
	var limit int
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Consecutive period buckets ending now with a trend direction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.analytics.Trends(cmd.Context(), a.userID, analytics.TrendOptions{
				Period: core.Period(period),
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&period, "period", string(core.Monthly), "bucket size (daily, weekly, monthly, yearly)")
	cmd.Flags().IntVar(&limit, "limit", 12, "number of buckets")
	return cmd
}

func compareCmd(a *app) *cobra.Command {
	var p1From, p1To, p2From, p2To string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two explicit periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p1Start, p1End, err := parseRange(p1From, p1To)
			if err != nil {
				return err
			}
			p2Start, p2End, err := parseRange(p2From, p2To)
			if err != nil {
				return err
			}
			res, err := a.analytics.Comparison(cmd.Context(), a.userID, analytics.ComparisonOptions{
				Period1Start: p1Start,
				Period1End:   p1End,
				Period2Start: p2Start,
				Period2End:   p2End,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&p1From, "p1-from", "", "first period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p1To, "p1-to", "", "first period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p2From, "p2-from", "", "second period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p2To, "p2-to", "", "second period end (YYYY-MM-DD)")
	for _, name := range []string{"p1-from", "p1-to", "p2-from", "p2-to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func forecastCmd(a *app) *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project income and expense for the coming months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.analytics.Forecast(cmd.Context(), a.userID, analytics.ForecastOptions{Months: months})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&months, "months", 3, "months to project")
	return cmd
}
