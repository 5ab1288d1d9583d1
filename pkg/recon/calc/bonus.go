package calc

import (
	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// LocalBonus calculates the local entity bonus comparison. Condition detail
// rows are deduplicated to one row per agreement, open accruals in foreign
// currency are corrected to local currency and each agreement's ledger
// subtotals are joined on per account. Difference is the joined ledger total
// minus the corrected open accruals.
//
// An exchange rate of exactly 1.0 disables the currency correction entirely,
// including for rows whose currency differs from the local one.
func (c *Calculator) LocalBonus(txtSumms map[string][]dataset.TextSummary, rows []dataset.BonusRecord, localCurrency string, rate float64) []dataset.BonusCalc {
	c.info("performing data calculations for local entity bonuses")

	seen := make(map[uint32]struct{}, len(rows))
	calcs := make([]dataset.BonusCalc, 0, len(rows))

	for _, row := range rows {
		if _, ok := seen[row.Agreement]; ok {
			continue
		}
		seen[row.Agreement] = struct{}{}

		open := deref(row.OpenAccruals)
		corr := 0.0
		if rate != 1.0 && row.Currency != localCurrency {
			corr = open*rate - open
		}
		lcOpen := open + corr

		sums := make(map[string]float64, len(txtSumms))
		diff := 0.0
		for acc, summaries := range txtSumms {
			amount := agreementSums(summaries)[row.Agreement]
			sums[acc] = amount
			diff += amount
		}
		diff = round2(diff - lcOpen)

		calcs = append(calcs, dataset.BonusCalc{
			RebateRecipient: row.RebateRecipient,
			Name:            row.Name,
			Country:         row.Country,
			TypeCode:        row.TypeCode,
			Agreement:       row.Agreement,
			Status:          row.Status,
			Description:     row.Description,
			BaseValue:       deref(row.ConditionValue),
			Payments:        deref(row.Payments),
			OpenAccruals:    open,
			Currency:        row.Currency,
			ArrangementCal:  row.ArrangementCal,
			ValidFrom:       row.ValidFrom,
			ValidTo:         row.ValidTo,
			CorrToLC:        ptr(corr),
			LCOpenAccruals:  ptr(lcOpen),
			AccountSums:     sums,
			Difference:      ptr(diff),
		})
	}
	return calcs
}

// HQBonus calculates the headquarters bonus comparison. Agreements span
// several rows in the overview; descriptive rows carrying a recipient name
// have their amounts zeroed so only the condition rows contribute to the
// grouped open accruals. The first row of each agreement carries the grouped
// figures, repeated rows keep their display columns but null numeric outputs.
func (c *Calculator) HQBonus(txtSumms map[string][]dataset.TextSummary, rows []dataset.BonusRecord, localCurrency string, rate float64) []dataset.BonusCalc {
	c.info("performing data calculations for headquarters bonuses")

	if rate != 1.0 {
		c.warn("exchange rate used for headquarters calculations",
			"currency", localCurrency, "rate", rate)
	}

	opens := make([]float64, len(rows))
	grouped := make(map[uint32]float64, len(rows))
	for i, row := range rows {
		open := deref(row.OpenAccruals)
		if row.Name != "" {
			open = 0
		}
		opens[i] = open
		grouped[row.Agreement] += open
	}

	first := make(map[uint32]struct{}, len(rows))
	calcs := make([]dataset.BonusCalc, 0, len(rows))

	for i, row := range rows {
		open := opens[i]
		based := deref(row.BasedValue)
		payments := deref(row.Payments)
		if row.Name != "" {
			based, payments = 0, 0
		}

		calc := dataset.BonusCalc{
			RebateRecipient: row.RebateRecipient,
			Name:            row.Name,
			Country:         row.Country,
			TypeCode:        row.TypeCode,
			Agreement:       row.Agreement,
			Status:          row.Status,
			Description:     row.Description,
			BaseValue:       based,
			Payments:        payments,
			OpenAccruals:    open,
			Currency:        row.Currency,
			ArrangementCal:  row.ArrangementCal,
			ValidFrom:       row.ValidFrom,
			ValidTo:         row.ValidTo,
			CorrToLC:        ptr(0),
		}

		if _, ok := first[row.Agreement]; ok {
			calcs = append(calcs, calc)
			continue
		}
		first[row.Agreement] = struct{}{}

		corr := 0.0
		if rate != 1.0 && row.Currency != localCurrency {
			corr = open*rate - open
		}
		lcOpen := grouped[row.Agreement] + corr

		sums := make(map[string]float64, len(txtSumms))
		diff := 0.0
		for acc, summaries := range txtSumms {
			amount := agreementSums(summaries)[row.Agreement]
			sums[acc] = amount
			diff += amount
		}
		diff = round2(diff - lcOpen)

		calc.CorrToLC = ptr(corr)
		calc.LCOpenAccruals = ptr(lcOpen)
		calc.AccountSums = sums
		calc.Difference = ptr(diff)
		calcs = append(calcs, calc)
	}
	return calcs
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
