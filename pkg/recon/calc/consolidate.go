package calc

import (
	"fmt"
	"strconv"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// Consolidate cross-references the local and headquarters calculations for
// countries reconciled under both scopes. It returns the local calculations
// stripped of agreements already covered by the headquarters scope, the
// distinct agreement numbers of both scopes paired side by side, and a
// row-by-row comparison of the local differences against the headquarters
// agreements.
func (c *Calculator) Consolidate(leCalcs, hqCalcs []dataset.BonusCalc) (deduped []dataset.BonusCalc, hqCompare []dataset.HQComparison, localCompare []dataset.LocalComparison) {
	c.info("consolidating local and headquarters bonus calculations")

	leAgreements := distinctAgreements(leCalcs)
	hqAgreements := distinctAgreements(hqCalcs)

	hqSet := make(map[uint32]struct{}, len(hqAgreements))
	for _, n := range hqAgreements {
		hqSet[n] = struct{}{}
	}
	leSet := make(map[uint32]struct{}, len(leAgreements))
	for _, n := range leAgreements {
		leSet[n] = struct{}{}
	}

	rows := len(leAgreements)
	if len(hqAgreements) > rows {
		rows = len(hqAgreements)
	}
	hqCompare = make([]dataset.HQComparison, rows)
	for i := range hqCompare {
		cmp := &hqCompare[i]
		if i < len(leAgreements) {
			n := leAgreements[i]
			cmp.LEAgreement = &n
		}
		if i < len(hqAgreements) {
			n := hqAgreements[i]
			cmp.HQAgreement = &n
		}
		cmp.Overview = hqOverview(cmp.HQAgreement, leSet)
	}

	deduped = make([]dataset.BonusCalc, 0, len(leCalcs))
	for _, calc := range leCalcs {
		if _, ok := hqSet[calc.Agreement]; ok {
			continue
		}
		deduped = append(deduped, calc)
	}

	rows = len(leCalcs)
	if len(hqCalcs) > rows {
		rows = len(hqCalcs)
	}
	localCompare = make([]dataset.LocalComparison, rows)
	for i := range localCompare {
		cmp := &localCompare[i]
		if i < len(leCalcs) {
			n := leCalcs[i].Agreement
			cmp.LEAgreement = &n
			cmp.LEDifference = leCalcs[i].Difference
		}
		if i < len(hqCalcs) {
			n := hqCalcs[i].Agreement
			cmp.HQAgreement = &n
		}

		cmp.HQDifference, cmp.HQDiffValue = hqDifference(cmp.LEAgreement, cmp.LEDifference, hqSet)
		cmp.Overview = localOverview(cmp.LEAgreement, hqSet, leSet)
		cmp.AmountCompared = amountCompared(cmp.LEDifference, cmp.HQDifference, cmp.HQDiffValue)
	}

	return deduped, hqCompare, localCompare
}

func distinctAgreements(calcs []dataset.BonusCalc) []uint32 {
	seen := make(map[uint32]struct{}, len(calcs))
	var out []uint32
	for _, calc := range calcs {
		if _, ok := seen[calc.Agreement]; ok {
			continue
		}
		seen[calc.Agreement] = struct{}{}
		out = append(out, calc.Agreement)
	}
	return out
}

func hqOverview(hqAgreement *uint32, leSet map[uint32]struct{}) string {
	if hqAgreement == nil {
		return "no match"
	}
	if _, ok := leSet[*hqAgreement]; ok {
		return fmt.Sprintf("Is in HQ and Local Agreements. Agreement Nr. %d", *hqAgreement)
	}
	return fmt.Sprintf("Is in HQ Agreements only. Agreement Nr. %d", *hqAgreement)
}

func hqDifference(leAgreement *uint32, leDiff *float64, hqSet map[uint32]struct{}) (string, *float64) {
	if leAgreement == nil {
		return "", nil
	}
	if _, ok := hqSet[*leAgreement]; ok {
		return strconv.FormatFloat(deref(leDiff), 'f', -1, 64), ptr(deref(leDiff))
	}
	return fmt.Sprintf("Agreement Nr. %d is just in local overview.", *leAgreement), nil
}

func localOverview(leAgreement *uint32, hqSet, leSet map[uint32]struct{}) string {
	if leAgreement == nil {
		return ""
	}
	_, inHQ := hqSet[*leAgreement]
	_, inLE := leSet[*leAgreement]
	switch {
	case inHQ && inLE:
		return "HQ and Local"
	case inLE && !inHQ:
		return "In Local Overview"
	default:
		return "In HQ overview"
	}
}

// amountCompared reproduces the comparison column of the consolidation: the
// difference of the two values when the rendered headquarters difference is a
// plain unsigned integer, the placeholder "X" otherwise.
func amountCompared(leDiff *float64, hqDiff string, hqDiffValue *float64) string {
	if leDiff == nil {
		return ""
	}
	if hqDiffValue == nil || !isDigits(hqDiff) {
		return "X"
	}
	return strconv.FormatFloat(*hqDiffValue-*leDiff, 'f', -1, 64)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
