package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glbonus/reconciler/pkg/recon/checkpoint"
	"github.com/glbonus/reconciler/pkg/recon/config"
	"github.com/glbonus/reconciler/pkg/recon/dates"
	"github.com/glbonus/reconciler/pkg/recon/ledger"
	"github.com/glbonus/reconciler/pkg/recon/notify"
	"github.com/glbonus/reconciler/pkg/recon/observability"
	"github.com/glbonus/reconciler/pkg/recon/pipeline"
	"github.com/glbonus/reconciler/pkg/recon/rates"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		countries  []string
		manualRate float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile every active country",
		Long: `Run drives each active country through its reconciliation stages:
exporting and converting the raw dumps, refreshing the ledger database,
acquiring the exchange rate, reconciling and writing the report. A country
whose previous run failed resumes from its checkpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := config.LoadApp(flags.configPath)
			if err != nil {
				return err
			}
			if app.ExportDir == "" {
				return errors.New("export_dir must be configured to run")
			}

			rules, err := config.LoadRules(flags.rulesPath)
			if err != nil {
				return err
			}
			if len(countries) > 0 {
				rules, err = selectCountries(rules, countries)
				if err != nil {
					return err
				}
			}

			logger := observability.NewLogger(app.LogLevel)

			store := checkpoint.NewFileStore(app.CheckpointPath)
			defer store.Close()

			ledgerStore, err := ledger.Open(app.LedgerPath, logger)
			if err != nil {
				return err
			}
			defer ledgerStore.Close()

			var source rates.Source = rates.NoPortal{}
			if app.RatePortalURL != "" {
				source = &rates.PortalSource{BaseURL: app.RatePortalURL}
			}

			p, err := pipeline.New(pipeline.Options{
				Config:     *app,
				Checkpoint: store,
				Exporter:   &pipeline.DirExporter{Dir: app.ExportDir},
				Ledger:     ledgerStore,
				Rates: rates.NewLadder(source, logger,
					app.RateTimeout, app.RateRetryTimeout, app.RateMaxLookbackDays),
				Notifier: &notify.LogNotifier{Logger: logger},
				Calendar: dates.NewCalendar(app.HolidayDates()),
				Logger:   logger,
				Metrics:  observability.NewMetricsRecorder(),
				Spans:    observability.NewSpanManager(),
			})
			if err != nil {
				return err
			}

			var override *float64
			if cmd.Flags().Changed("rate") {
				override = &manualRate
			}
			return p.Run(cmd.Context(), rules, override)
		},
	}

	cmd.Flags().StringSliceVar(&countries, "country", nil,
		"limit the run to these countries")
	cmd.Flags().Float64Var(&manualRate, "rate", 0,
		"manually entered exchange rate, bypassing the portal")
	return cmd
}

// selectCountries keeps the rules named by the filter, failing on names
// without a rule.
func selectCountries(rules []config.Rule, names []string) ([]config.Rule, error) {
	byName := make(map[string]config.Rule, len(rules))
	for _, rule := range rules {
		byName[rule.Country] = rule
	}

	selected := make([]config.Rule, 0, len(names))
	for _, name := range names {
		rule, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no rule configured for country %q", name)
		}
		selected = append(selected, rule)
	}
	return selected, nil
}
