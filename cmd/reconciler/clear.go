package main

import (
	"github.com/spf13/cobra"

	"github.com/glbonus/reconciler/pkg/recon/checkpoint"
	"github.com/glbonus/reconciler/pkg/recon/config"
)

func newClearCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the recorded checkpoint",
		Long: `Clear throws away all recorded reconciliation progress. The next run
starts every country from its first stage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := config.LoadApp(flags.configPath)
			if err != nil {
				return err
			}

			store := checkpoint.NewFileStore(app.CheckpointPath)
			defer store.Close()
			return store.Clear()
		},
	}
}
