package calc

import (
	"fmt"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// Summary row labels, in report order.
const (
	RowLocalEntityBonuses = "Local Entity Bonuses"
	RowHQBonuses          = "HQ Bonuses"
	RowSum                = "Sum"
	RowGLBalance          = "GL Balance"
	RowDifference         = "Difference"
	RowStatusInvalidText  = "Status: x"
	RowStatusCheck        = "Status: CHECK"
)

// Summarize compares the general ledger balances with the subledger
// calculations per account. hqCalcs is nil for countries without a
// headquarters scope; its summary row then carries zeroes and a blank
// difference. Accounts with no balance data for the period yield an all-zero
// column.
func (c *Calculator) Summarize(
	txtSumms map[string][]dataset.TextSummary,
	leCalcs, hqCalcs []dataset.BonusCalc,
	balances map[string][]dataset.AccountBalance,
	accounts []string,
	period uint8,
) (dataset.Summary, error) {
	if period < 1 || period > 15 {
		return dataset.Summary{}, fmt.Errorf("fiscal period out of range: %d", period)
	}

	c.info("summarizing general ledger and subledger bonus data")

	labels := []string{
		RowLocalEntityBonuses,
		RowHQBonuses,
		RowSum,
		RowGLBalance,
		RowDifference,
		RowStatusInvalidText,
		RowStatusCheck,
	}
	values := make(map[string]map[string]*float64, len(labels))
	for _, label := range labels {
		values[label] = make(map[string]*float64, len(accounts))
	}

	for _, acc := range accounts {
		balance, ok := balances[acc]
		if !ok {
			for _, label := range labels {
				values[label][acc] = ptr(0)
			}
			c.info("summarization skipped, no balance data for period",
				"account", acc, "period", period)
			continue
		}

		cumulative := 0.0
		for _, row := range balance {
			if row.Period != period {
				continue
			}
			if row.CumulativeBalance != nil {
				cumulative = *row.CumulativeBalance
			}
			break
		}

		le := sumAccount(leCalcs, acc)
		hq := 0.0
		if hqCalcs != nil {
			hq = sumAccount(hqCalcs, acc)
		}
		statusX, statusCheck := 0.0, 0.0
		for _, row := range txtSumms[acc] {
			switch row.Status {
			case StatusInvalidText:
				statusX += row.AmountSum
			case StatusAgreementClosed:
				statusCheck += row.AmountSum
			}
		}

		total := le + hq
		values[RowLocalEntityBonuses][acc] = ptr(round2(le))
		values[RowHQBonuses][acc] = ptr(round2(hq))
		values[RowSum][acc] = ptr(round2(total))
		values[RowGLBalance][acc] = ptr(round2(cumulative))
		values[RowDifference][acc] = ptr(round2(cumulative - total))
		values[RowStatusInvalidText][acc] = ptr(round2(statusX))
		values[RowStatusCheck][acc] = ptr(round2(statusCheck))
	}

	leDiff := sumDifferences(leCalcs)
	var hqDiff *float64
	sumDiff := leDiff
	if hqCalcs != nil {
		hqDiff = ptr(round2(sumDifferences(hqCalcs)))
		sumDiff += *hqDiff
	}

	rowDiffs := map[string]*float64{
		RowLocalEntityBonuses: ptr(round2(leDiff)),
		RowHQBonuses:          hqDiff,
		RowSum:                ptr(round2(sumDiff)),
		RowStatusInvalidText:  ptr(round2(sumRow(values[RowStatusInvalidText], accounts))),
		RowStatusCheck:        ptr(round2(sumRow(values[RowStatusCheck], accounts))),
	}

	rows := make([]dataset.SummaryRow, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, dataset.SummaryRow{
			Label:      label,
			Values:     values[label],
			Difference: rowDiffs[label],
		})
	}
	return dataset.Summary{Accounts: accounts, Rows: rows}, nil
}

func sumAccount(calcs []dataset.BonusCalc, account string) float64 {
	var total float64
	for _, calc := range calcs {
		total += calc.AccountSums[account]
	}
	return total
}

func sumDifferences(calcs []dataset.BonusCalc) float64 {
	var total float64
	for _, calc := range calcs {
		if calc.Difference != nil {
			total += *calc.Difference
		}
	}
	return total
}

func sumRow(values map[string]*float64, accounts []string) float64 {
	var total float64
	for _, acc := range accounts {
		if v := values[acc]; v != nil {
			total += *v
		}
	}
	return total
}
