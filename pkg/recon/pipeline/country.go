package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glbonus/reconciler/pkg/recon/accum"
	"github.com/glbonus/reconciler/pkg/recon/checkpoint"
	"github.com/glbonus/reconciler/pkg/recon/config"
	"github.com/glbonus/reconciler/pkg/recon/dataset"
	"github.com/glbonus/reconciler/pkg/recon/dates"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
	"github.com/glbonus/reconciler/pkg/recon/observability"
	"github.com/glbonus/reconciler/pkg/recon/rates"
)

// countryRun carries one country's parameters through its stage sequence.
type countryRun struct {
	rule   config.Rule
	runID  string
	times  dates.ReconTimes
	lower  time.Time
	upper  time.Time

	// monthEnd marks a scheduled run on the first business day after
	// ultimo; such runs must convert at the exact ultimo rate.
	monthEnd     bool
	rateOverride *float64
	logger       *slog.Logger

	// rate is set by the reconcile stage for the run info sheet.
	rate rates.Result
}

// runCountry drives one country through every stage in order. The first
// failing stage stops the country.
func (p *Pipeline) runCountry(ctx context.Context, run *countryRun) error {
	steps := []func(context.Context, *countryRun) error{
		p.exportGLItems,
		p.convertGLItems,
		p.refreshLedger,
		p.exportConditions,
		p.convertConditions,
		p.exportAgreements,
		p.convertAgreements,
		p.exportLocalBonus,
		p.convertLocalBonus,
		p.exportHQBonus,
		p.convertHQBonus,
		p.processAccounts,
		p.retrieveYearlySummary,
		p.reconcile,
		p.storeRunInfo,
		p.complete,
	}
	for _, step := range steps {
		if err := step(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

// stageFn performs one stage's effects and reports the state to record.
type stageFn func(context.Context) (checkpoint.State, error)

// runStage executes a country scoped stage unless the checkpoint already
// marks it finished. The outcome is recorded after the stage's effects; a
// failure additionally records the user-facing error for the notification.
func (p *Pipeline) runStage(ctx context.Context, run *countryRun, stage string, fn stageFn) error {
	state, err := p.checkpoint.Get(run.rule.Country, stage)
	if err != nil {
		return reconerr.Fatal(err, "reading checkpoint")
	}
	if state.Finished() {
		observability.LogStageSkipped(run.logger, run.rule.Country, stage)
		return nil
	}
	if err := p.clearStaleError(run, state); err != nil {
		return err
	}
	return p.executeStage(ctx, run, "", stage, fn)
}

// runAccountStage is runStage for the account scoped stages.
func (p *Pipeline) runAccountStage(ctx context.Context, run *countryRun, account, stage string, fn stageFn) error {
	state, err := p.checkpoint.GetAccount(run.rule.Country, account, stage)
	if err != nil {
		return reconerr.Fatal(err, "reading checkpoint")
	}
	if state.Finished() {
		observability.LogStageSkipped(run.logger, run.rule.Country, stage+"/"+account)
		return nil
	}
	if err := p.clearStaleError(run, state); err != nil {
		return err
	}
	return p.executeStage(ctx, run, account, stage, fn)
}

// clearStaleError resets the recorded user error before retrying a
// previously failed stage, so a successful resume notifies cleanly.
func (p *Pipeline) clearStaleError(run *countryRun, state checkpoint.State) error {
	if state.Status != checkpoint.StatusFailed {
		return nil
	}
	if err := p.checkpoint.SetUserError(run.rule.Country, ""); err != nil {
		return reconerr.Fatal(err, "clearing recorded error")
	}
	return nil
}

func (p *Pipeline) executeStage(ctx context.Context, run *countryRun, account, stage string, fn stageFn) error {
	country := run.rule.Country
	name := stage
	if account != "" {
		name = stage + "/" + account
	}

	observability.LogStageStart(run.logger, country, name)
	ctx, span := p.spans.StartStageSpan(ctx, country, name)
	elapsed := observability.TimedOperation()

	state, err := fn(ctx)

	ms := elapsed()
	p.metrics.RecordStageExecution(ctx, country, name,
		time.Duration(ms*float64(time.Millisecond)), err)
	p.spans.EndSpanWithError(span, err)

	if err != nil {
		observability.LogStageError(run.logger, country, name, err)
		if setErr := p.setState(country, account, stage, checkpoint.Failed(err.Error())); setErr != nil {
			return reconerr.Fatal(setErr, "recording stage failure")
		}
		if setErr := p.checkpoint.SetUserError(country, err.Error()); setErr != nil {
			return reconerr.Fatal(setErr, "recording user error")
		}
		return fmt.Errorf("stage %s: %w", name, err)
	}

	if setErr := p.setState(country, account, stage, state); setErr != nil {
		return reconerr.Fatal(setErr, "recording stage state")
	}
	p.metrics.RecordCheckpointWrite(ctx, country)
	observability.LogCheckpointWrite(run.logger, country, name, string(state.Status))
	observability.LogStageComplete(run.logger, country, name, ms)
	return nil
}

func (p *Pipeline) setState(country, account, stage string, state checkpoint.State) error {
	if account != "" {
		return p.checkpoint.SetAccount(country, account, stage, state)
	}
	return p.checkpoint.Set(country, stage, state)
}

// stageState reads a recorded stage state, country or account scoped.
func (p *Pipeline) stageState(country, account, stage string) (checkpoint.State, error) {
	if account != "" {
		return p.checkpoint.GetAccount(country, account, stage)
	}
	return p.checkpoint.Get(country, stage)
}

// storeRawExport turns an export retry result into a stage state, parking
// the dump text for the conversion stage. An empty search is recorded as
// no data, not a failure.
func (p *Pipeline) storeRawExport(country string, kind dataset.Kind, account string, res reconerr.RetryResult[string]) (checkpoint.State, error) {
	if res.Err != nil {
		if reconerr.IsNoData(res.Err) {
			return checkpoint.NoData(), nil
		}
		return checkpoint.State{}, res.Err
	}
	if err := writeRaw(p.rawPath(country, kind, account), res.Value); err != nil {
		return checkpoint.State{}, err
	}
	return checkpoint.Done(), nil
}

// convertStage parses a parked raw dump into a typed dataset, caches it and
// stores it in the accumulator. When the export stage found no data the
// dataset is stored as an explicit empty marker.
func convertStage[T any](p *Pipeline, country, account, exportStage string, kind dataset.Kind, parse func(string) ([]T, error)) (checkpoint.State, error) {
	exported, err := p.stageState(country, account, exportStage)
	if err != nil {
		return checkpoint.State{}, reconerr.Fatal(err, "reading checkpoint")
	}

	key := accum.Key{Country: country, Kind: kind, Account: account}
	if exported.Status == checkpoint.StatusNoData {
		if err := p.data.Put(key, nil); err != nil {
			return checkpoint.State{}, err
		}
		return checkpoint.NoData(), nil
	}

	text, err := readRaw(p.rawPath(country, kind, account))
	if err != nil {
		return checkpoint.State{}, err
	}
	rows, err := parse(text)
	if err != nil {
		return checkpoint.State{}, err
	}

	if err := dataset.WriteCache(dataset.CachePath(p.cfg.DataDir, country, kind, account), rows); err != nil {
		return checkpoint.State{}, err
	}
	if err := p.data.Put(key, rows); err != nil {
		return checkpoint.State{}, err
	}
	return checkpoint.Done(), nil
}

// loadRows returns a converted dataset, reloading it from the binary cache
// when the accumulator does not hold it yet. Resumed runs skip the finished
// conversion stages, so their datasets arrive here through the cache.
func loadRows[T any](p *Pipeline, country string, kind dataset.Kind, account string) ([]T, error) {
	key := accum.Key{Country: country, Kind: kind, Account: account}
	if p.data.Has(key) {
		return accum.Fetch[[]T](p.data, key)
	}

	rows, err := dataset.ReadCache[T](dataset.CachePath(p.cfg.DataDir, country, kind, account))
	if err != nil {
		return nil, err
	}
	if err := p.data.Put(key, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// loadIfPresent is loadRows guarded by the conversion stage's flag: datasets
// whose stage recorded no data load as nil without touching the cache.
func loadIfPresent[T any](p *Pipeline, country, account, convertedStage string, kind dataset.Kind) ([]T, error) {
	state, err := p.stageState(country, account, convertedStage)
	if err != nil {
		return nil, reconerr.Fatal(err, "reading checkpoint")
	}
	if state.Status != checkpoint.StatusDone {
		return nil, nil
	}
	return loadRows[T](p, country, kind, account)
}
