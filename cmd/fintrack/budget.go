package main

import (
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/spf13/cobra"
)

func budgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Budget progress, insights and management",
	}

	cmd.AddCommand(budgetProgressCmd(a))
	cmd.AddCommand(budgetInsightsCmd(a))
	cmd.AddCommand(budgetActiveCmd(a))
	cmd.AddCommand(budgetCreateCmd(a))
	cmd.AddCommand(budgetDeleteCmd(a))

	return cmd
}

func budgetProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <budget-id>",
		Short: "Spending against one budget for its current period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.budgets.Progress(cmd.Context(), a.userID, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func budgetInsightsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Summary and recommendations across active budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ins, err := a.budgets.Insights(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ins)
		},
	}
}

func budgetActiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List budgets active today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.budgets.Active(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
}

func budgetCreateCmd(a *app) *cobra.Command {
	var (
		amount, period, start, end, category string
		mute                                 bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a budget for a category or the whole account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}
			startDate, err := parseDate(start, false)
			if err != nil {
				return err
			}
			if startDate.IsZero() {
				now := time.Now()
				startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			}
			in := services.BudgetInput{
				CategoryID: category,
				Amount:     amt,
				Period:     core.Period(period),
				StartDate:  startDate,
			}
			if end != "" {
				endDate, err := parseDate(end, true)
				if err != nil {
					return err
				}
				in.EndDate = &endDate
			}
			if mute {
				off := false
				in.Notifications = &off
			}

			svc := services.NewBudgetService(a.backend.Store, a.analytics, a.logger.Logger)
			b, err := svc.Create(cmd.Context(), a.userID, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "budget limit (required)")
	cmd.Flags().StringVar(&period, "period", string(core.Monthly), "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&start, "start", "", "first day the budget applies (default today)")
	cmd.Flags().StringVar(&end, "end", "", "last day the budget applies (default open-ended)")
	cmd.Flags().StringVar(&category, "category", "", "category id (default whole account)")
	cmd.Flags().BoolVar(&mute, "no-notify", false, "disable alerts for this budget")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func budgetDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewBudgetService(a.backend.Store, a.analytics, a.logger.Logger)
			if err := svc.Delete(cmd.Context(), a.userID, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted budget %s\n", args[0])
			return err
		},
	}
}
