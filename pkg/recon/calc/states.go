package calc

import (
	"sort"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// CheckAgreementStates validates each account's text subtotals against the
// subledger overviews. Rows with a non-zero amount whose text is missing an
// identification token are marked "x"; rows pointing at an agreement that is
// no longer open in the subledger are marked "CHECK". Marked rows sort first
// in the returned subtotals.
func (c *Calculator) CheckAgreementStates(txtSumms map[string][]dataset.TextSummary, localBonus, hqBonus []dataset.BonusRecord) map[string][]dataset.TextSummary {
	c.info("checking open agreement states")

	open := make(map[uint32]struct{}, len(localBonus)+len(hqBonus))
	for _, row := range localBonus {
		open[row.Agreement] = struct{}{}
	}
	for _, row := range hqBonus {
		open[row.Agreement] = struct{}{}
	}

	checked := make(map[string][]dataset.TextSummary, len(txtSumms))
	for acc, summaries := range txtSumms {
		rows := make([]dataset.TextSummary, len(summaries))
		copy(rows, summaries)

		for i := range rows {
			row := &rows[i]
			row.Status = ""
			if row.AmountSum == 0 {
				continue
			}
			if row.Condition == nil || row.Category == nil || row.Customer == nil || row.Agreement == nil {
				row.Status = StatusInvalidText
				continue
			}
			if _, ok := open[*row.Agreement]; !ok {
				row.Status = StatusAgreementClosed
			}
		}

		sort.SliceStable(rows, func(i, j int) bool {
			return statusRank(rows[i].Status) < statusRank(rows[j].Status)
		})
		checked[acc] = rows
	}
	return checked
}

// statusRank fixes the display order of the state marks: invalid text
// first, closed agreements next, unmarked rows last.
func statusRank(status string) int {
	switch status {
	case StatusInvalidText:
		return 0
	case StatusAgreementClosed:
		return 1
	default:
		return 2
	}
}
