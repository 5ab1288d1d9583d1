package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// Bonus overview rows start with the eight-digit agreement number.
var bonusLine = regexp.MustCompile(`^\|\s?\d{8}\s?\|.*\|$`)

const bonusColumns = 42

// Sales organizations with a local entity scope in the bonus overview.
var localSalesOrgs = map[string]struct{}{
	"0001": {}, "0010": {}, "0052": {}, "0057": {},
	"0059": {}, "0063": {}, "0067": {}, "0072": {},
	"0073": {}, "0074": {}, "0075": {}, "0076": {},
	"0078": {}, "2051": {}, "2053": {}, "2054": {},
}

// LocalBonus converts a raw local entity bonus dump. It returns the cleaned
// rows and the full condition detail.
//
// The dump lists one row per condition line: only the first row of an
// agreement carries the country, later rows repeat the agreement with blank
// descriptive columns. Cleaning drops the blank-country rows and joins each
// agreement's condition rate back onto the rows that remain; the unmodified
// detail is returned separately for the report.
func (c *Converter) LocalBonus(text string) (rows, conditions []dataset.BonusRecord, err error) {
	parsed, err := c.parseBonusLines(text, dataset.KindLocalBonus)
	if err != nil {
		return nil, nil, err
	}

	// Remember each agreement's condition rate before dropping rows
	rateByAgreement := make(map[uint32]*float64)
	for _, rec := range parsed {
		if rec.ConditionRate != nil {
			if _, ok := rateByAgreement[rec.Agreement]; !ok {
				rate := *rec.ConditionRate
				rateByAgreement[rec.Agreement] = &rate
			}
		}
	}

	cleaned := make([]dataset.BonusRecord, 0, len(parsed))
	for _, rec := range parsed {
		if rec.Country == "" {
			continue
		}
		rec.ConditionRate = rateByAgreement[rec.Agreement]
		cleaned = append(cleaned, rec)
	}

	return cleaned, parsed, nil
}

// HQBonus converts a raw headquarters bonus dump. Rows without open accruals
// are dropped; blank variable keys are rewritten to name the local sales
// organization the row applies to.
func (c *Converter) HQBonus(text, salesOrgLocal string) ([]dataset.BonusRecord, error) {
	if _, ok := localSalesOrgs[salesOrgLocal]; !ok {
		return nil, fmt.Errorf("incorrect local sales organization code: %s", salesOrgLocal)
	}

	parsed, err := c.parseBonusLines(text, dataset.KindHQBonus)
	if err != nil {
		return nil, err
	}

	cleaned := make([]dataset.BonusRecord, 0, len(parsed))
	for _, rec := range parsed {
		if rec.OpenAccruals == nil {
			continue
		}
		if rec.VariableKey == "" {
			rec.VariableKey = "For " + salesOrgLocal
		}
		cleaned = append(cleaned, rec)
	}
	return cleaned, nil
}

func (c *Converter) parseBonusLines(text string, kind dataset.Kind) ([]dataset.BonusRecord, error) {
	lines := isolateLines(text, bonusLine)
	if len(lines) == 0 {
		return nil, &reconerr.ConversionError{
			Kind:    string(kind),
			Message: "no data rows found in export",
		}
	}

	records := make([]dataset.BonusRecord, 0, len(lines))
	for _, line := range lines {
		rec, err := parseBonusLine(line, kind)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseBonusLine(line string, kind dataset.Kind) (dataset.BonusRecord, error) {
	fail := func(msg string) (dataset.BonusRecord, error) {
		return dataset.BonusRecord{}, &reconerr.ConversionError{
			Kind:    string(kind),
			Line:    line,
			Message: msg,
		}
	}

	fields := splitFields(line)
	if len(fields) != bonusColumns {
		return fail(fmt.Sprintf("expected %d columns, got %d", bonusColumns, len(fields)))
	}

	agreement, err := parseUint32(fields[0])
	if err != nil {
		return fail("unparseable agreement number")
	}

	// Condition rates carry a percent suffix
	rate, err := ParseOptionalAmount(strings.TrimSuffix(strings.TrimSpace(fields[7]), "%"))
	if err != nil {
		return fail("unparseable condition rate")
	}

	amounts := make([]*float64, 7)
	for i, idx := range []int{8, 14, 15, 16, 17, 18, 19} {
		parsed, err := ParseOptionalAmount(fields[idx])
		if err != nil {
			return fail("unparseable amount")
		}
		amounts[i] = parsed
	}

	return dataset.BonusRecord{
		Agreement:       agreement,
		RebateRecipient: fields[1],
		Name:            fields[2],
		City:            fields[3],
		Country:         fields[4],
		ConditionType:   fields[5],
		VariableKey:     fields[6],
		ConditionRate:   rate,
		BasedValue:      amounts[0],
		Status:          fields[9],
		Description:     fields[10],
		TypeCode:        fields[11],
		CategoryA:       fields[12],
		CategoryB:       fields[13],
		ConditionValue:  amounts[1],
		Accruals:        amounts[2],
		AccrualsRev:     amounts[3],
		Payments:        amounts[4],
		OpenValue:       amounts[5],
		OpenAccruals:    amounts[6],
		Currency:        fields[20],
		ArrangementCal:  fields[21],
		SettlementPer:   fields[22],
		TypeName:        fields[23],
		ValidFrom:       ParseDate(fields[24]),
		ValidTo:         ParseDate(fields[25]),
		SalesOffice:     fields[26],
		SalesGroup:      fields[28],
		Payer:           fields[30],
		AgreementStatus: fields[36],
		SalesOrg:        fields[37],
	}, nil
}
