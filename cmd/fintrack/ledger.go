package main

import (
	"fmt"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/spf13/cobra"
)

func categoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}
	cmd.AddCommand(categoryAddCmd(a))
	cmd.AddCommand(categoryMoveCmd(a))
	cmd.AddCommand(categoryDeleteCmd(a))
	cmd.AddCommand(categoryStatsCmd(a))
	return cmd
}

func categoryStatsCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "stats <category-id>",
		Short: "Show a category's totals and latest transactions (dates optional, either side may be open)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			detail, err := a.analytics.CategoryDetail(cmd.Context(), a.userID, args[0], analytics.CategoryDetailOptions{Start: start, End: end})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), detail)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	return cmd
}

func categoryAddCmd(a *app) *cobra.Command {
	var in services.CategoryInput
	var typ string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			in.Type = core.CategoryType(typ)
			svc := services.NewCategoryService(a.backend.Store, a.analytics, a.logger.Logger)
			c, err := svc.Create(cmd.Context(), a.userID, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(core.CategoryExpense), "income, expense or both")
	cmd.Flags().StringVar(&in.Color, "color", "#9E9E9E", "display color (#RRGGBB)")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "display icon")
	cmd.Flags().StringVar(&in.ParentID, "parent", "", "parent category id")
	return cmd
}

func categoryMoveCmd(a *app) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "move <category-id>",
		Short: "Change a category's parent (empty --parent moves it to the top level)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewCategoryService(a.backend.Store, a.analytics, a.logger.Logger)
			c, err := svc.Update(cmd.Context(), a.userID, args[0], services.CategoryPatch{ParentID: &parent})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "new parent category id")
	return cmd
}

func categoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category without transactions or subcategories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewCategoryService(a.backend.Store, a.analytics, a.logger.Logger)
			if err := svc.Delete(cmd.Context(), a.userID, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
			return err
		},
	}
}

func txCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and remove transactions",
	}
	cmd.AddCommand(txAddCmd(a))
	cmd.AddCommand(txDeleteCmd(a))
	return cmd
}

func txAddCmd(a *app) *cobra.Command {
	var (
		in             services.TransactionInput
		amount, typ, d string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}
			date, err := parseDate(d, false)
			if err != nil {
				return err
			}
			if date.IsZero() {
				date = time.Now()
			}
			in.Amount = amt
			in.Type = core.TransactionType(typ)
			in.Date = date

			svc := services.NewTransactionService(a.backend.Store, a.analytics, a.ledgerPublisher(), a.logger.Logger)
			tx, err := svc.Create(cmd.Context(), a.userID, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "positive amount (required)")
	cmd.Flags().StringVar(&typ, "type", string(core.Expense), "income or expense")
	cmd.Flags().StringVar(&in.CategoryID, "category", "", "category id (required)")
	cmd.Flags().StringVar(&d, "date", "", "transaction date (default now)")
	cmd.Flags().StringVar(&in.Description, "description", "", "free text")
	cmd.Flags().StringVar(&in.PaymentMethod, "method", "", "payment method")
	cmd.Flags().StringVar(&in.Location, "location", "", "where it happened")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func txDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewTransactionService(a.backend.Store, a.analytics, a.ledgerPublisher(), a.logger.Logger)
			if err := svc.Delete(cmd.Context(), a.userID, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %s\n", args[0])
			return err
		},
	}
}
