package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glbonus/reconciler/pkg/recon/accum"
	"github.com/glbonus/reconciler/pkg/recon/calc"
	"github.com/glbonus/reconciler/pkg/recon/checkpoint"
	"github.com/glbonus/reconciler/pkg/recon/convert"
	"github.com/glbonus/reconciler/pkg/recon/dataset"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
	"github.com/glbonus/reconciler/pkg/recon/notify"
	"github.com/glbonus/reconciler/pkg/recon/observability"
)

func (p *Pipeline) exportGLItems(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageGLItemsExported, func(ctx context.Context) (checkpoint.State, error) {
		res := reconerr.WithRetryContext(ctx, reconerr.ExportRetry, func(ctx context.Context) (string, error) {
			return p.exporter.GLItems(ctx, run.rule, run.lower, run.upper)
		})
		return p.storeRawExport(run.rule.Country, dataset.KindGLItems, "", res)
	})
}

func (p *Pipeline) convertGLItems(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageGLItemsConverted, func(context.Context) (checkpoint.State, error) {
		return convertStage(p, run.rule.Country, "",
			checkpoint.StageGLItemsExported, dataset.KindGLItems,
			p.converter.GLItems)
	})
}

// refreshLedger replaces the export window's ledger rows with the fresh
// export. Items before the window are history and stay untouched.
func (p *Pipeline) refreshLedger(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageLedgerRefreshed, func(ctx context.Context) (checkpoint.State, error) {
		if err := p.ledger.EnsureSchema(ctx, run.rule.CompanyCode, run.rule.Accounts); err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "preparing ledger schema")
		}

		converted, err := p.checkpoint.Get(run.rule.Country, checkpoint.StageGLItemsConverted)
		if err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "reading checkpoint")
		}
		if converted.Status == checkpoint.StatusNoData {
			return checkpoint.NoData(), nil
		}

		items, err := loadRows[dataset.GLItem](p, run.rule.Country, dataset.KindGLItems, "")
		if err != nil {
			return checkpoint.State{}, err
		}

		if _, err := p.ledger.DeleteFromPostingDate(ctx, run.rule.CompanyCode, run.lower); err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "deleting stale ledger rows")
		}
		if err := p.ledger.ResetSequence(ctx, run.rule.CompanyCode); err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "resetting ledger sequence")
		}
		if err := p.ledger.StoreItems(ctx, run.rule.CompanyCode, items); err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "storing ledger items")
		}
		return checkpoint.Done(), nil
	})
}

func (p *Pipeline) exportConditions(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageConditionsExported, func(ctx context.Context) (checkpoint.State, error) {
		res := reconerr.WithRetryContext(ctx, reconerr.ExportRetry, func(ctx context.Context) (string, error) {
			return p.exporter.ConditionRecords(ctx, run.rule)
		})
		return p.storeRawExport(run.rule.Country, dataset.KindConditionRecords, "", res)
	})
}

func (p *Pipeline) convertConditions(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageConditionsConverted, func(context.Context) (checkpoint.State, error) {
		return convertStage(p, run.rule.Country, "",
			checkpoint.StageConditionsExported, dataset.KindConditionRecords,
			p.converter.ConditionRecords)
	})
}

// exportAgreements fetches the agreement master for the agreement numbers
// seen in the condition records. No conditions means no agreements to fetch.
func (p *Pipeline) exportAgreements(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageAgreementsExported, func(ctx context.Context) (checkpoint.State, error) {
		conditions, err := loadIfPresent[dataset.ConditionRecord](p, run.rule.Country, "",
			checkpoint.StageConditionsConverted, dataset.KindConditionRecords)
		if err != nil {
			return checkpoint.State{}, err
		}

		numbers := convert.Agreements(conditions, func(r dataset.ConditionRecord) uint32 {
			return r.Agreement
		})
		if len(numbers) == 0 {
			return checkpoint.NoData(), nil
		}

		res := reconerr.WithRetryContext(ctx, reconerr.ExportRetry, func(ctx context.Context) (string, error) {
			return p.exporter.AgreementMaster(ctx, run.rule, numbers)
		})
		return p.storeRawExport(run.rule.Country, dataset.KindAgreementMaster, "", res)
	})
}

func (p *Pipeline) convertAgreements(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageAgreementsConverted, func(context.Context) (checkpoint.State, error) {
		return convertStage(p, run.rule.Country, "",
			checkpoint.StageAgreementsExported, dataset.KindAgreementMaster,
			p.converter.AgreementRecords)
	})
}

func (p *Pipeline) exportLocalBonus(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageLocalBonusExported, func(ctx context.Context) (checkpoint.State, error) {
		res := reconerr.WithRetryContext(ctx, reconerr.ExportRetry, func(ctx context.Context) (string, error) {
			return p.exporter.LocalBonus(ctx, run.rule, run.times.ReconciliationDate)
		})
		return p.storeRawExport(run.rule.Country, dataset.KindLocalBonus, "", res)
	})
}

// convertLocalBonus produces two datasets from one dump: the cleaned rows
// carrying one line per agreement, and the untouched condition detail.
func (p *Pipeline) convertLocalBonus(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageLocalBonusConverted, func(context.Context) (checkpoint.State, error) {
		country := run.rule.Country
		rowsKey := accum.Key{Country: country, Kind: dataset.KindLocalBonus}
		detailKey := accum.Key{Country: country, Kind: dataset.KindLocalConditions}

		exported, err := p.checkpoint.Get(country, checkpoint.StageLocalBonusExported)
		if err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "reading checkpoint")
		}
		if exported.Status == checkpoint.StatusNoData {
			if err := p.data.Put(rowsKey, nil); err != nil {
				return checkpoint.State{}, err
			}
			if err := p.data.Put(detailKey, nil); err != nil {
				return checkpoint.State{}, err
			}
			return checkpoint.NoData(), nil
		}

		text, err := readRaw(p.rawPath(country, dataset.KindLocalBonus, ""))
		if err != nil {
			return checkpoint.State{}, err
		}
		rows, detail, err := p.converter.LocalBonus(text)
		if err != nil {
			return checkpoint.State{}, err
		}

		if err := dataset.WriteCache(dataset.CachePath(p.cfg.DataDir, country, dataset.KindLocalBonus, ""), rows); err != nil {
			return checkpoint.State{}, err
		}
		if err := dataset.WriteCache(dataset.CachePath(p.cfg.DataDir, country, dataset.KindLocalConditions, ""), detail); err != nil {
			return checkpoint.State{}, err
		}
		if err := p.data.Put(rowsKey, rows); err != nil {
			return checkpoint.State{}, err
		}
		if err := p.data.Put(detailKey, detail); err != nil {
			return checkpoint.State{}, err
		}
		return checkpoint.Done(), nil
	})
}

// exportHQBonus runs only for countries with headquarters sales offices
// configured.
func (p *Pipeline) exportHQBonus(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageHQBonusExported, func(ctx context.Context) (checkpoint.State, error) {
		if len(run.rule.SalesOffices) == 0 {
			return checkpoint.NoData(), nil
		}
		res := reconerr.WithRetryContext(ctx, reconerr.ExportRetry, func(ctx context.Context) (string, error) {
			return p.exporter.HQBonus(ctx, run.rule, run.times.ReconciliationDate)
		})
		return p.storeRawExport(run.rule.Country, dataset.KindHQBonus, "", res)
	})
}

func (p *Pipeline) convertHQBonus(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageHQBonusConverted, func(context.Context) (checkpoint.State, error) {
		return convertStage(p, run.rule.Country, "",
			checkpoint.StageHQBonusExported, dataset.KindHQBonus,
			func(text string) ([]dataset.BonusRecord, error) {
				return p.converter.HQBonus(text, run.rule.SalesOrgLocal)
			})
	})
}

// processAccounts exports and converts each GL account's balance display and
// retrieves its ledger text subtotals.
func (p *Pipeline) processAccounts(ctx context.Context, run *countryRun) error {
	for _, account := range run.rule.Accounts {
		err := p.runAccountStage(ctx, run, account, checkpoint.StageBalanceExported, func(ctx context.Context) (checkpoint.State, error) {
			res := reconerr.WithRetryContext(ctx, reconerr.ExportRetry, func(ctx context.Context) (string, error) {
				return p.exporter.AccountBalance(ctx, run.rule, account, run.times.FiscalYear)
			})
			return p.storeRawExport(run.rule.Country, dataset.KindAccountBalance, account, res)
		})
		if err != nil {
			return err
		}

		err = p.runAccountStage(ctx, run, account, checkpoint.StageBalanceConverted, func(context.Context) (checkpoint.State, error) {
			return convertStage(p, run.rule.Country, account,
				checkpoint.StageBalanceExported, dataset.KindAccountBalance,
				p.converter.AccountBalances)
		})
		if err != nil {
			return err
		}

		err = p.runAccountStage(ctx, run, account, checkpoint.StageTextSummaryRetrieved, func(ctx context.Context) (checkpoint.State, error) {
			rows, err := p.ledger.TextSummary(ctx, run.rule.CompanyCode, account)
			if err != nil {
				return checkpoint.State{}, reconerr.Fatal(err, "retrieving text summary")
			}
			if err := dataset.WriteCache(dataset.CachePath(p.cfg.DataDir, run.rule.Country, dataset.KindTextSummaries, account), rows); err != nil {
				return checkpoint.State{}, err
			}
			key := accum.Key{Country: run.rule.Country, Kind: dataset.KindTextSummaries, Account: account}
			if err := p.data.Put(key, rows); err != nil {
				return checkpoint.State{}, err
			}
			return checkpoint.Done(), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) retrieveYearlySummary(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageYearlySummaryRetrieved, func(ctx context.Context) (checkpoint.State, error) {
		rows, err := p.ledger.YearlySummary(ctx, run.rule.CompanyCode)
		if err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "retrieving yearly summary")
		}
		if err := dataset.WriteCache(dataset.CachePath(p.cfg.DataDir, run.rule.Country, dataset.KindYearlySummary, ""), rows); err != nil {
			return checkpoint.State{}, err
		}
		key := accum.Key{Country: run.rule.Country, Kind: dataset.KindYearlySummary}
		if err := p.data.Put(key, rows); err != nil {
			return checkpoint.State{}, err
		}
		return checkpoint.Done(), nil
	})
}

// runDerivedStage executes a stage whose outputs live only in memory. Such
// stages rerun on resume even when already flagged done, since a resumed
// process starts with an empty accumulator; they are skipped only once the
// country is fully completed.
func (p *Pipeline) runDerivedStage(ctx context.Context, run *countryRun, stage string, fn stageFn) error {
	completed, err := p.checkpoint.Get(run.rule.Country, checkpoint.StageCompleted)
	if err != nil {
		return reconerr.Fatal(err, "reading checkpoint")
	}
	if completed.Finished() {
		observability.LogStageSkipped(run.logger, run.rule.Country, stage)
		return nil
	}
	return p.executeStage(ctx, run, "", stage, fn)
}

// reconcile acquires the exchange rate and runs every calculation, filling
// the accumulator with the report datasets.
func (p *Pipeline) reconcile(ctx context.Context, run *countryRun) error {
	return p.runDerivedStage(ctx, run, checkpoint.StageReconciled, func(ctx context.Context) (checkpoint.State, error) {
		country := run.rule.Country

		// Rates are never checkpointed; a resumed run reacquires them.
		rate, err := p.rates.Acquire(ctx, run.times.ConversionDate,
			run.rule.LocalCurrency, run.monthEnd, run.rateOverride)
		if err != nil {
			var rateErr *reconerr.RateUnavailableError
			if errors.As(err, &rateErr) {
				return checkpoint.State{}, reconerr.Business(err, "acquiring exchange rate")
			}
			return checkpoint.State{}, err
		}
		if rate.Warning != "" {
			if err := p.checkpoint.SetWarning(country, rate.Warning); err != nil {
				return checkpoint.State{}, reconerr.Fatal(err, "recording rate warning")
			}
		}
		run.rate = rate

		localRows, err := loadIfPresent[dataset.BonusRecord](p, country, "",
			checkpoint.StageLocalBonusConverted, dataset.KindLocalBonus)
		if err != nil {
			return checkpoint.State{}, err
		}
		hqRows, err := loadIfPresent[dataset.BonusRecord](p, country, "",
			checkpoint.StageHQBonusConverted, dataset.KindHQBonus)
		if err != nil {
			return checkpoint.State{}, err
		}

		// The condition records, agreement master and local condition
		// detail feed report sheets only; loading pulls them back into
		// the accumulator on a resumed run.
		if _, err := loadIfPresent[dataset.ConditionRecord](p, country, "",
			checkpoint.StageConditionsConverted, dataset.KindConditionRecords); err != nil {
			return checkpoint.State{}, err
		}
		if _, err := loadIfPresent[dataset.AgreementRecord](p, country, "",
			checkpoint.StageAgreementsConverted, dataset.KindAgreementMaster); err != nil {
			return checkpoint.State{}, err
		}
		if _, err := loadIfPresent[dataset.BonusRecord](p, country, "",
			checkpoint.StageLocalBonusConverted, dataset.KindLocalConditions); err != nil {
			return checkpoint.State{}, err
		}

		txtSumms := make(map[string][]dataset.TextSummary, len(run.rule.Accounts))
		for _, account := range run.rule.Accounts {
			rows, err := loadIfPresent[dataset.TextSummary](p, country, account,
				checkpoint.StageTextSummaryRetrieved, dataset.KindTextSummaries)
			if err != nil {
				return checkpoint.State{}, err
			}
			txtSumms[account] = rows
		}

		checked := p.calculator.CheckAgreementStates(txtSumms, localRows, hqRows)
		for account, rows := range checked {
			key := accum.Key{Country: country, Kind: dataset.KindCheckedSummaries, Account: account}
			if err := p.data.Put(key, rows); err != nil {
				return checkpoint.State{}, err
			}
		}

		leCalcs := p.calculator.LocalBonus(checked, localRows, run.rule.LocalCurrency, rate.Rate)
		var hqCalcs []dataset.BonusCalc
		if len(hqRows) > 0 {
			hqCalcs = p.calculator.HQBonus(checked, hqRows, run.rule.LocalCurrency, rate.Rate)
		}

		if run.rule.ConsolidateScopes && hqCalcs != nil {
			deduped, hqCompare, localCompare := p.calculator.Consolidate(leCalcs, hqCalcs)
			leCalcs = deduped
			if err := p.data.Put(accum.Key{Country: country, Kind: dataset.KindHQComparison}, hqCompare); err != nil {
				return checkpoint.State{}, err
			}
			if err := p.data.Put(accum.Key{Country: country, Kind: dataset.KindLocalComparison}, localCompare); err != nil {
				return checkpoint.State{}, err
			}
		}

		balances := make(map[string][]dataset.AccountBalance, len(run.rule.Accounts))
		for _, account := range run.rule.Accounts {
			rows, err := loadIfPresent[dataset.AccountBalance](p, country, account,
				checkpoint.StageBalanceConverted, dataset.KindAccountBalance)
			if err != nil {
				return checkpoint.State{}, err
			}
			balances[account] = rows
		}

		summary, err := p.calculator.Summarize(checked, leCalcs, hqCalcs,
			balances, run.rule.Accounts, run.times.FiscalPeriod)
		if err != nil {
			return checkpoint.State{}, reconerr.Business(err, "summarizing")
		}

		yearly, err := loadIfPresent[dataset.YearlySummary](p, country, "",
			checkpoint.StageYearlySummaryRetrieved, dataset.KindYearlySummary)
		if err != nil {
			return checkpoint.State{}, err
		}
		overview := p.calculator.PeriodOverview(yearly)

		if err := p.data.Put(accum.Key{Country: country, Kind: dataset.KindLocalBonusCalc}, leCalcs); err != nil {
			return checkpoint.State{}, err
		}
		if hqCalcs != nil {
			if err := p.data.Put(accum.Key{Country: country, Kind: dataset.KindHQBonusCalc}, hqCalcs); err != nil {
				return checkpoint.State{}, err
			}
		}
		if err := p.data.Put(accum.Key{Country: country, Kind: dataset.KindFinalSummary}, summary); err != nil {
			return checkpoint.State{}, err
		}
		if err := p.data.Put(accum.Key{Country: country, Kind: dataset.KindPeriodOverview}, overview); err != nil {
			return checkpoint.State{}, err
		}
		return checkpoint.Done(), nil
	})
}

func (p *Pipeline) storeRunInfo(ctx context.Context, run *countryRun) error {
	return p.runDerivedStage(ctx, run, checkpoint.StageRunInfoStored, func(context.Context) (checkpoint.State, error) {
		info, err := calc.CompileRunInfo(
			run.rule.Country, run.rule.CompanyCode,
			run.rate.Rate, run.rule.LocalCurrency,
			run.times.FiscalYear, run.times.FiscalPeriod,
			run.rule.Accounts, run.rule.SalesOffices,
			run.rule.SalesOrgHQ, run.rule.SalesOrgLocal,
			p.now())
		if err != nil {
			return checkpoint.State{}, reconerr.Business(err, "compiling run info")
		}
		key := accum.Key{Country: run.rule.Country, Kind: dataset.KindRunInfo}
		if err := p.data.Put(key, info); err != nil {
			return checkpoint.State{}, err
		}
		return checkpoint.Done(), nil
	})
}

// complete writes the report workbook and notifies the accountants.
func (p *Pipeline) complete(ctx context.Context, run *countryRun) error {
	return p.runStage(ctx, run, checkpoint.StageCompleted, func(ctx context.Context) (checkpoint.State, error) {
		dir := p.cfg.ReportDir
		if dir == "" {
			dir = p.cfg.DataDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return checkpoint.State{}, fmt.Errorf("create report dir: %w", err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%s_%d_%02d.xlsx",
			run.rule.Country, run.rule.CompanyCode,
			run.times.FiscalYear, run.times.FiscalPeriod))
		if err := p.reports.Write(path, run.rule.Country, p.data); err != nil {
			return checkpoint.State{}, err
		}

		warning, err := p.checkpoint.Warning(run.rule.Country)
		if err != nil {
			return checkpoint.State{}, reconerr.Fatal(err, "reading recorded warning")
		}
		outcome := notify.ReportOutcome(run.rule.Country, path, warning, run.rule.Accountants)
		if err := p.notifier.Notify(ctx, outcome); err != nil {
			return checkpoint.State{}, fmt.Errorf("delivering outcome: %w", err)
		}
		return checkpoint.Done(), nil
	})
}
