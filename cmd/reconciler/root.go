package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	rulesPath  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Month-end bonus accrual reconciliation",
		Long: `Reconciler compares the bonus accruals booked on the general ledger
with the subledger bonus overviews, country by country, and writes one
reconciliation workbook per country. Interrupted runs resume from the
recorded checkpoint.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c",
		"config.yaml", "application configuration file")
	cmd.PersistentFlags().StringVar(&flags.rulesPath, "rules",
		"rules.yaml", "country reconciliation rules file")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newClearCmd(flags))
	cmd.AddCommand(newVersionCmd())
	return cmd
}
