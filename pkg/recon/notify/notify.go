// Package notify delivers per-country run outcomes to the accountants
// responsible for the reconciled entity.
package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Outcome describes how one country's reconciliation ended. A run either
// produces a report, optionally with a warning attached, or fails with an
// error; warning and error never coexist.
type Outcome struct {
	Country    string
	Recipients []string

	// ReportPath points at the generated workbook on success.
	ReportPath string

	Warning string
	Error   string
}

// Validate checks the outcome's consistency.
func (o Outcome) Validate() error {
	if o.Country == "" {
		return fmt.Errorf("outcome without a country")
	}
	if o.Error != "" && o.Warning != "" {
		return fmt.Errorf("outcome for %s carries both a warning and an error", o.Country)
	}
	if o.Error != "" && o.ReportPath != "" {
		return fmt.Errorf("outcome for %s carries both a report and an error", o.Country)
	}
	if o.Error == "" && o.ReportPath == "" {
		return fmt.Errorf("outcome for %s carries neither a report nor an error", o.Country)
	}
	return nil
}

// ReportOutcome builds a success outcome. warning may be empty.
func ReportOutcome(country, reportPath, warning string, recipients []string) Outcome {
	return Outcome{
		Country:    country,
		Recipients: recipients,
		ReportPath: reportPath,
		Warning:    warning,
	}
}

// ErrorOutcome builds a failure outcome.
func ErrorOutcome(country, message string, recipients []string) Outcome {
	return Outcome{
		Country:    country,
		Recipients: recipients,
		Error:      message,
	}
}

// Notifier delivers outcomes. Implementations own the transport; the
// pipeline only guarantees one outcome per country per run.
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome) error
}

// LogNotifier writes outcomes to the run log. It stands in when no mail
// transport is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, outcome Outcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}
	if n.Logger == nil {
		return nil
	}

	switch {
	case outcome.Error != "":
		n.Logger.Error("reconciliation failed",
			"country", outcome.Country, "error", outcome.Error)
	case outcome.Warning != "":
		n.Logger.Warn("reconciliation finished with a warning",
			"country", outcome.Country, "report", outcome.ReportPath,
			"warning", outcome.Warning)
	default:
		n.Logger.Info("reconciliation finished",
			"country", outcome.Country, "report", outcome.ReportPath)
	}
	return nil
}
