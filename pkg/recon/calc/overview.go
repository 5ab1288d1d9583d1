package calc

import (
	"sort"
	"strconv"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// PeriodOverview pivots the yearly ledger subtotals into a fiscal year and
// period by account table. Rows and account columns are sorted ascending; a
// closing grand total line carries the per-account and overall totals.
func (c *Calculator) PeriodOverview(yearly []dataset.YearlySummary) dataset.PeriodOverview {
	type yearPeriod struct {
		year   uint16
		period uint8
	}

	accountSet := make(map[string]struct{})
	cells := make(map[yearPeriod]map[string]float64)
	for _, row := range yearly {
		acc := strconv.FormatUint(uint64(row.Account), 10)
		accountSet[acc] = struct{}{}

		key := yearPeriod{row.FiscalYear, row.Period}
		if cells[key] == nil {
			cells[key] = make(map[string]float64)
		}
		cells[key][acc] += row.AmountSum
	}

	accounts := make([]string, 0, len(accountSet))
	for acc := range accountSet {
		accounts = append(accounts, acc)
	}
	sort.Strings(accounts)

	keys := make([]yearPeriod, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].period < keys[j].period
	})

	rows := make([]dataset.PeriodOverviewRow, 0, len(keys)+1)
	grand := make(map[string]float64, len(accounts))
	var grandTotal float64

	for _, key := range keys {
		var total float64
		for acc, amount := range cells[key] {
			total += amount
			grand[acc] += amount
		}
		grandTotal += total
		rows = append(rows, dataset.PeriodOverviewRow{
			FiscalYear: key.year,
			Period:     key.period,
			Values:     cells[key],
			Total:      total,
		})
	}

	if len(rows) > 0 {
		rows = append(rows, dataset.PeriodOverviewRow{
			Values:     grand,
			Total:      grandTotal,
			GrandTotal: true,
		})
	}

	return dataset.PeriodOverview{Accounts: accounts, Rows: rows}
}
