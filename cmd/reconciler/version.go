package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reconciler version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "reconciler", version)
		},
	}
}
