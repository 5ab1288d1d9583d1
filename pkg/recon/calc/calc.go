// Package calc reconciles converted general ledger and subledger datasets.
//
// The calculations join the ledger's text subtotals onto the bonus overviews
// by agreement number, correct foreign currency accruals to local currency
// and derive the per-agreement and per-account differences that make up the
// final summary.
package calc

import (
	"log/slog"
	"math"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// Status marks written onto text subtotal rows by the agreement state check.
const (
	StatusInvalidText     = "x"
	StatusAgreementClosed = "CHECK"
)

// Calculator performs the reconciliation calculations.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator creates a calculator. The logger may be nil.
func NewCalculator(logger *slog.Logger) *Calculator {
	return &Calculator{logger: logger}
}

func (c *Calculator) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Calculator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}

// agreementSums groups one account's text subtotals by agreement number.
// Rows without an agreement are left out.
func agreementSums(summaries []dataset.TextSummary) map[uint32]float64 {
	sums := make(map[uint32]float64, len(summaries))
	for _, s := range summaries {
		if s.Agreement == nil {
			continue
		}
		sums[*s.Agreement] += s.AmountSum
	}
	return sums
}
