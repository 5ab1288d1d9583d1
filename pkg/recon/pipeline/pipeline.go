// Package pipeline orchestrates the month-end reconciliation run: exporting,
// converting, refreshing the ledger, acquiring rates, reconciling and
// reporting, country by country.
//
// Every stage records its outcome in the checkpoint store after its effects
// are durable, so an interrupted run resumes where it left off. A stage
// failure fails its country; the remaining countries still run. Only fatal
// environment errors abort the whole run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glbonus/reconciler/pkg/recon/accum"
	"github.com/glbonus/reconciler/pkg/recon/calc"
	"github.com/glbonus/reconciler/pkg/recon/checkpoint"
	"github.com/glbonus/reconciler/pkg/recon/config"
	"github.com/glbonus/reconciler/pkg/recon/convert"
	"github.com/glbonus/reconciler/pkg/recon/dataset"
	"github.com/glbonus/reconciler/pkg/recon/dates"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
	"github.com/glbonus/reconciler/pkg/recon/ledger"
	"github.com/glbonus/reconciler/pkg/recon/notify"
	"github.com/glbonus/reconciler/pkg/recon/observability"
	"github.com/glbonus/reconciler/pkg/recon/rates"
	"github.com/glbonus/reconciler/pkg/recon/report"
)

// Options wires a Pipeline's dependencies. Checkpoint, Exporter, Ledger and
// Rates are required; the rest default to working stand-ins.
type Options struct {
	Config     config.App
	Checkpoint checkpoint.Store
	Exporter   Exporter
	Ledger     *ledger.Store
	Rates      *rates.Ladder

	Converter  *convert.Converter
	Calculator *calc.Calculator
	Reports    *report.Writer
	Notifier   notify.Notifier
	Calendar   dates.Calendar
	Logger     *slog.Logger
	Metrics    observability.MetricsRecorder
	Spans      observability.SpanManager

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Pipeline runs reconciliations.
type Pipeline struct {
	cfg        config.App
	checkpoint checkpoint.Store
	exporter   Exporter
	ledger     *ledger.Store
	rates      *rates.Ladder
	converter  *convert.Converter
	calculator *calc.Calculator
	reports    *report.Writer
	notifier   notify.Notifier
	calendar   dates.Calendar
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	now        func() time.Time

	// data accumulates every dataset produced during one run.
	data *accum.Store
}

// New creates a pipeline from the options.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Checkpoint == nil:
		return nil, errors.New("pipeline: checkpoint store is required")
	case opts.Exporter == nil:
		return nil, errors.New("pipeline: exporter is required")
	case opts.Ledger == nil:
		return nil, errors.New("pipeline: ledger store is required")
	case opts.Rates == nil:
		return nil, errors.New("pipeline: rate ladder is required")
	}

	p := &Pipeline{
		cfg:        opts.Config,
		checkpoint: opts.Checkpoint,
		exporter:   opts.Exporter,
		ledger:     opts.Ledger,
		rates:      opts.Rates,
		converter:  opts.Converter,
		calculator: opts.Calculator,
		reports:    opts.Reports,
		notifier:   opts.Notifier,
		calendar:   opts.Calendar,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		spans:      opts.Spans,
		now:        opts.Now,
		data:       accum.New(),
	}
	if p.converter == nil {
		p.converter = convert.NewConverter(opts.Logger,
			opts.Config.ParseWorkers, opts.Config.ParseChunkThreshold,
			opts.Config.Categories)
	}
	if p.calculator == nil {
		p.calculator = calc.NewCalculator(opts.Logger)
	}
	if p.reports == nil {
		p.reports = report.NewWriter(opts.Logger)
	}
	if p.notifier == nil {
		p.notifier = &notify.LogNotifier{Logger: opts.Logger}
	}
	if p.metrics == nil {
		p.metrics = observability.NoopMetrics{}
	}
	if p.spans == nil {
		p.spans = observability.NoopSpanManager{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Run reconciles every active rule. rateOverride, when set, replaces the
// portal exchange rate for all countries in the run; it is only meaningful
// for user-triggered single-country runs.
//
// Countries whose reconciliation fails are reported to their accountants and
// skipped; their checkpoint state survives for the next attempt. When every
// country completes, the intermediate data and the checkpoint document are
// discarded.
func (p *Pipeline) Run(ctx context.Context, rules []config.Rule, rateOverride *float64) error {
	active := config.ActiveRules(rules)
	if len(active) == 0 {
		return errors.New("pipeline: no active countries configured")
	}

	countries := make([]string, len(active))
	for i, rule := range active {
		countries[i] = rule.Country
	}
	if err := p.checkpoint.Init(countries); err != nil {
		return fmt.Errorf("initializing checkpoint: %w", err)
	}
	p.data.Clear()

	runID := uuid.NewString()
	ctx, span := p.spans.StartRunSpan(ctx, runID)
	defer span.End()

	logger := observability.EnrichLogger(p.logger, runID, "", "")
	observability.LogRunStart(logger, runID, countries)
	elapsed := observability.TimedOperation()

	day := p.now()
	times := p.calendar.ReconciliationTimes(day)
	lower, upper := p.calendar.ExportWindow(day)

	completed := 0
	for _, rule := range active {
		run := &countryRun{
			rule:         rule,
			runID:        runID,
			times:        times,
			lower:        lower,
			upper:        upper,
			monthEnd:     sameDay(day, p.calendar.UltimoPlusOne(day)),
			rateOverride: rateOverride,
			logger:       observability.EnrichLogger(p.logger, runID, rule.Country, ""),
		}

		countryElapsed := observability.TimedOperation()
		err := p.runCountry(ctx, run)
		p.metrics.RecordCountryRun(ctx, rule.Country, err == nil,
			time.Duration(countryElapsed()*float64(time.Millisecond)))

		if err != nil {
			if reconerr.Categorize(err) == reconerr.CategoryFatal {
				observability.LogRunError(logger, runID, err, elapsed())
				return err
			}
			observability.LogCountrySkipped(logger, rule.Country, err)
			p.notifyFailure(ctx, rule, err)
			continue
		}
		completed++
	}

	if completed == len(active) {
		p.cleanup(countries)
		if err := p.checkpoint.Clear(); err != nil {
			return fmt.Errorf("clearing checkpoint after full run: %w", err)
		}
	}

	observability.LogRunComplete(logger, runID, elapsed(), completed)
	return nil
}

// notifyFailure sends the country's accountants the recorded user error, or
// the raw stage error when none was recorded.
func (p *Pipeline) notifyFailure(ctx context.Context, rule config.Rule, err error) {
	message, lookupErr := p.checkpoint.UserError(rule.Country)
	if lookupErr != nil || message == "" {
		message = err.Error()
	}
	outcome := notify.ErrorOutcome(rule.Country, message, rule.Accountants)
	if notifyErr := p.notifier.Notify(ctx, outcome); notifyErr != nil && p.logger != nil {
		p.logger.Error("failure notification not delivered",
			"country", rule.Country, "error", notifyErr)
	}
}

// cleanup removes the raw dumps and dataset caches left behind by the run.
// Reports stay; they were just announced to the accountants.
func (p *Pipeline) cleanup(countries []string) {
	entries, err := os.ReadDir(p.cfg.DataDir)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("intermediate data not cleaned up", "error", err)
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".txt") && !strings.HasSuffix(name, ".gob") {
			continue
		}
		for _, country := range countries {
			if strings.HasPrefix(name, country+"_") {
				if err := os.Remove(filepath.Join(p.cfg.DataDir, name)); err != nil && p.logger != nil {
					p.logger.Warn("intermediate file not removed",
						"file", name, "error", err)
				}
				break
			}
		}
	}
}

// rawPath is where a raw export dump is parked between its export and
// conversion stages.
func (p *Pipeline) rawPath(country string, kind dataset.Kind, account string) string {
	name := country + "_" + string(kind)
	if account != "" {
		name += "_" + account
	}
	return filepath.Join(p.cfg.DataDir, name+".txt")
}

func writeRaw(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write raw export %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace raw export %s: %w", path, err)
	}
	return nil
}

func readRaw(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read raw export %s: %w", path, err)
	}
	return string(data), nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
