package convert

import (
	"fmt"
	"regexp"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// Table browser rows start with the three-digit client number.
var tableLine = regexp.MustCompile(`^\|\s*\d{3}\|.*\|$`)

const (
	conditionColumns = 10
	agreementColumns = 64
)

// Agreement master column positions. The dump carries 64 columns; only a
// subset feeds the reconciliation.
const (
	konaClient            = 0
	konaAgreement         = 1
	konaSalesOrganization = 2
	konaDistribution      = 3
	konaDivision          = 4
	konaSalesOffice       = 5
	konaSalesGroup        = 6
	konaAgreementType     = 7
	konaAgreementCategory = 8
	konaApplication       = 9
	konaCreatedBy         = 10
	konaCreatedOn         = 11
	konaChangedBy         = 13
	konaChangedOn         = 14
	konaRebateRecipient   = 16
	konaCurrency          = 17
	konaMaximumRebate     = 18
	konaCategory          = 19
	konaAgreementStatus   = 23
	konaValidFrom         = 24
	konaValidTo           = 25
	konaCondTypeGroup     = 26
	konaDescription       = 27
	konaAdditionValueDays = 29
	konaArrangementCal    = 34
	konaCompanyCode       = 41
	konaPredecessor       = 42
	konaSettlementPeriods = 45
)

// ConditionRecords converts a raw condition table dump.
func (c *Converter) ConditionRecords(text string) ([]dataset.ConditionRecord, error) {
	lines := isolateLines(text, tableLine)
	if len(lines) == 0 {
		return nil, &reconerr.ConversionError{
			Kind:    string(dataset.KindConditionRecords),
			Message: "no data rows found in export",
		}
	}

	records := make([]dataset.ConditionRecord, 0, len(lines))
	for _, line := range lines {
		fields := splitFields(line)
		if len(fields) != conditionColumns {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindConditionRecords),
				Line:    line,
				Message: fmt.Sprintf("expected %d columns, got %d", conditionColumns, len(fields)),
			}
		}

		agreement, err := parseUint32(fields[7])
		if err != nil {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindConditionRecords),
				Line:    line,
				Message: "unparseable agreement number",
			}
		}
		recordNumber, err := parseUint32(fields[9])
		if err != nil {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindConditionRecords),
				Line:    line,
				Message: "unparseable condition record number",
			}
		}

		records = append(records, dataset.ConditionRecord{
			Client:            fields[0],
			Application:       fields[1],
			ConditionType:     fields[2],
			SalesOrganization: fields[3],
			SalesOffice:       fields[4],
			Customer:          fields[5],
			ValidTo:           ParseDate(fields[6]),
			Agreement:         agreement,
			ValidFrom:         ParseDate(fields[8]),
			RecordNumber:      recordNumber,
		})
	}
	return records, nil
}

// AgreementRecords converts a raw agreement master dump. Agreement
// descriptions occasionally contain the column separator itself; rows with
// surplus cells are repaired by folding the surplus back into the
// description.
func (c *Converter) AgreementRecords(text string) ([]dataset.AgreementRecord, error) {
	lines := isolateLines(text, tableLine)
	if len(lines) == 0 {
		return nil, &reconerr.ConversionError{
			Kind:    string(dataset.KindAgreementMaster),
			Message: "no data rows found in export",
		}
	}

	records := make([]dataset.AgreementRecord, 0, len(lines))
	for _, line := range lines {
		fields := splitFields(line)

		// Fold separator characters inside the description column
		for len(fields) > agreementColumns {
			fields[konaDescription] = fields[konaDescription] + "/" + fields[konaDescription+1]
			fields = append(fields[:konaDescription+1], fields[konaDescription+2:]...)
		}
		if len(fields) != agreementColumns {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindAgreementMaster),
				Line:    line,
				Message: fmt.Sprintf("expected %d columns, got %d", agreementColumns, len(fields)),
			}
		}

		agreement, err := parseUint32(fields[konaAgreement])
		if err != nil {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindAgreementMaster),
				Line:    line,
				Message: "unparseable agreement number",
			}
		}

		var maxRebate float64
		if rebate, err := ParseOptionalAmount(fields[konaMaximumRebate]); err == nil && rebate != nil {
			maxRebate = *rebate
		}

		records = append(records, dataset.AgreementRecord{
			Client:              fields[konaClient],
			Agreement:           agreement,
			SalesOrganization:   fields[konaSalesOrganization],
			DistributionChannel: fields[konaDistribution],
			Division:            fields[konaDivision],
			SalesOffice:         fields[konaSalesOffice],
			SalesGroup:          fields[konaSalesGroup],
			AgreementType:       fields[konaAgreementType],
			AgreementCategory:   fields[konaAgreementCategory],
			Application:         fields[konaApplication],
			CreatedBy:           fields[konaCreatedBy],
			CreatedOn:           ParseDate(fields[konaCreatedOn]),
			ChangedBy:           fields[konaChangedBy],
			ChangedOn:           ParseDate(fields[konaChangedOn]),
			RebateRecipient:     fields[konaRebateRecipient],
			Currency:            fields[konaCurrency],
			MaximumRebate:       maxRebate,
			Category:            fields[konaCategory],
			AgreementStatus:     fields[konaAgreementStatus],
			ValidFrom:           ParseDate(fields[konaValidFrom]),
			ValidTo:             ParseDate(fields[konaValidTo]),
			ConditionTypeGroup:  fields[konaCondTypeGroup],
			Description:         fields[konaDescription],
			AdditionValueDays:   parseOptionalUint32(fields[konaAdditionValueDays]),
			ArrangementCal:      fields[konaArrangementCal],
			CompanyCode:         fields[konaCompanyCode],
			Predecessor:         parseOptionalUint32(fields[konaPredecessor]),
			SettlementPeriods:   fields[konaSettlementPeriods],
		})
	}
	return records, nil
}

// Agreements returns the distinct agreement numbers of a converted table, in
// first-seen order.
func Agreements[T any](rows []T, number func(T) uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(rows))
	var out []uint32
	for _, row := range rows {
		n := number(row)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
