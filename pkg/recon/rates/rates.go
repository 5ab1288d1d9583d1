// Package rates acquires the exchange rates used for currency conversion.
//
// Rates are published on a company portal once per day, sometimes later than
// the reconciliation runs. The acquisition ladder covers the gap: the exact
// conversion day first, one longer-timeout retry after a timeout, then a walk
// back over recent days when the run is user-triggered. Scheduled month-end
// runs never fall back to a stale rate.
package rates

import (
	"context"
	"errors"
	"log/slog"
	"time"

	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// Source fetches the EUR to local currency rate valid on a day. It returns a
// NoDataError when no rate is published for the day and a TimeoutError when
// the portal does not answer within the context deadline.
type Source interface {
	ExchangeRate(ctx context.Context, day time.Time, currency string) (float64, error)
}

// Result is an acquired exchange rate.
type Result struct {
	Rate float64

	// Day the rate is valid on. Differs from the requested day after a
	// walk back.
	Day time.Time

	// Warning is a user-facing notice set when a stale or manually
	// entered rate is used.
	Warning string
}

// Ladder runs the rate acquisition rules against a source.
type Ladder struct {
	source          Source
	logger          *slog.Logger
	timeout         time.Duration
	retryTimeout    time.Duration
	maxLookbackDays int
}

// NewLadder creates an acquisition ladder. timeout bounds the first fetch of
// each day, retryTimeout the single retry after a timeout. maxLookbackDays
// caps the walk back for user-triggered runs.
func NewLadder(source Source, logger *slog.Logger, timeout, retryTimeout time.Duration, maxLookbackDays int) *Ladder {
	return &Ladder{
		source:          source,
		logger:          logger,
		timeout:         timeout,
		retryTimeout:    retryTimeout,
		maxLookbackDays: maxLookbackDays,
	}
}

// Acquire obtains the rate for converting EUR amounts to currency on day.
// override short-circuits the ladder with a manually entered rate.
// ultimoPlusOne marks a scheduled month-end run, which must use the exact
// day's rate or fail.
func (l *Ladder) Acquire(ctx context.Context, day time.Time, currency string, ultimoPlusOne bool, override *float64) (Result, error) {
	if override != nil {
		l.warn("using manually entered exchange rate", "rate", *override, "currency", currency)
		return Result{
			Rate:    *override,
			Day:     day,
			Warning: "A manually entered exchange rate was used for calculations.",
		}, nil
	}

	rate, found, err := l.fetchWithRetry(ctx, day, currency)
	if err != nil {
		return Result{}, err
	}
	if found {
		return Result{Rate: rate, Day: day}, nil
	}

	if ultimoPlusOne {
		return Result{}, &reconerr.RateUnavailableError{
			Currency: currency,
			Day:      day.Format("02.01.2006"),
			Message:  "no rate published for the month-end conversion day",
		}
	}

	// Rates may not be published yet when a user triggers the run; fall
	// back to the most recent published day.
	for back := 1; back <= l.maxLookbackDays; back++ {
		prev := day.AddDate(0, 0, -back)
		rate, found, err = l.fetchWithRetry(ctx, prev, currency)
		if err != nil {
			return Result{}, err
		}
		if !found {
			continue
		}

		l.warn("exchange rate not available for conversion day, stale rate used",
			"requested", day.Format("02.01.2006"),
			"used", prev.Format("02.01.2006"),
			"currency", currency)
		return Result{
			Rate: rate,
			Day:  prev,
			Warning: "The exchange rate was not available on the portal for " +
				day.Format("02.01.2006") + ". A rate as per " +
				prev.Format("02.01.2006") + " was used instead.",
		}, nil
	}

	return Result{}, &reconerr.RateUnavailableError{
		Currency: currency,
		Day:      day.Format("02.01.2006"),
		Message:  "no rate published within the lookback window",
	}
}

// fetchWithRetry fetches one day's rate, retrying once with the longer
// timeout after a timeout. A missing rate is not an error here.
func (l *Ladder) fetchWithRetry(ctx context.Context, day time.Time, currency string) (float64, bool, error) {
	rate, err := l.fetch(ctx, day, currency, l.timeout)
	var timeoutErr *reconerr.TimeoutError
	if errors.As(err, &timeoutErr) {
		l.warn("exchange rate fetch timed out, retrying", "day", day.Format("02.01.2006"))
		rate, err = l.fetch(ctx, day, currency, l.retryTimeout)
	}

	switch {
	case err == nil:
		return rate, true, nil
	case reconerr.IsNoData(err):
		return 0, false, nil
	default:
		return 0, false, err
	}
}

func (l *Ladder) fetch(ctx context.Context, day time.Time, currency string, timeout time.Duration) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.source.ExchangeRate(ctx, day, currency)
}

func (l *Ladder) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
