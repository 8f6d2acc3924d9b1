package main

import (
	"context"

	"github.com/spf13/cobra"
)

// execute runs root and releases the app's resources afterwards. Cobra skips
// post-run hooks when a command fails, so closing happens here instead.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance analytics and budgets",
		Long: `fintrack reads a user's ledger and produces analytics, budget progress
and custom reports. Results are printed as JSON unless a command says otherwise.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.userID, "user", "", "user id whose data is read (required)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	_ = root.MarkPersistentFlagRequired("user")

	root.AddCommand(overviewCmd(a))
	root.AddCommand(monthlyCmd(a))
	root.AddCommand(categoriesCmd(a))
	root.AddCommand(trendsCmd(a))
	root.AddCommand(compareCmd(a))
	root.AddCommand(forecastCmd(a))
	root.AddCommand(reportCmd(a))
	root.AddCommand(budgetCmd(a))
	root.AddCommand(categoryCmd(a))
	root.AddCommand(txCmd(a))

	return root, a
}
