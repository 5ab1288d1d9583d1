package convert

import (
	"fmt"
	"regexp"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// Balance display rows start with a digit, a comma or the total marker.
var balanceLine = regexp.MustCompile(`\|[\d,T].*\|`)

const balanceColumns = 5

// AccountBalances converts a raw account balance display. The closing total
// row is dropped; the remaining rows are numbered as fiscal periods 1..n in
// display order.
func (c *Converter) AccountBalances(text string) ([]dataset.AccountBalance, error) {
	lines := isolateLines(text, balanceLine)
	if len(lines) == 0 {
		return nil, &reconerr.ConversionError{
			Kind:    string(dataset.KindAccountBalance),
			Message: "no data rows found in export",
		}
	}

	// Last row is the overall total, not a period
	lines = lines[:len(lines)-1]

	balances := make([]dataset.AccountBalance, 0, len(lines))
	for i, line := range lines {
		fields := splitFields(line)
		if len(fields) != balanceColumns {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindAccountBalance),
				Line:    line,
				Message: fmt.Sprintf("expected %d columns, got %d", balanceColumns, len(fields)),
			}
		}

		var debit, credit float64
		if v, err := ParseOptionalAmount(fields[1]); err == nil && v != nil {
			debit = *v
		}
		if v, err := ParseOptionalAmount(fields[2]); err == nil && v != nil {
			credit = *v
		}
		balance, err := ParseOptionalAmount(fields[3])
		if err != nil {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindAccountBalance),
				Line:    line,
				Message: "unparseable balance",
			}
		}
		cumulative, err := ParseOptionalAmount(fields[4])
		if err != nil {
			return nil, &reconerr.ConversionError{
				Kind:    string(dataset.KindAccountBalance),
				Line:    line,
				Message: "unparseable cumulative balance",
			}
		}

		balances = append(balances, dataset.AccountBalance{
			Period:            uint8(i + 1),
			Debit:             debit,
			Credit:            credit,
			Balance:           balance,
			CumulativeBalance: cumulative,
		})
	}
	return balances, nil
}
