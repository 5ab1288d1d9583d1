package calc

import (
	"fmt"
	"time"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// CompileRunInfo assembles the run description placed on the report's info
// sheet.
func CompileRunInfo(
	country, companyCode string,
	exchangeRate float64,
	localCurrency string,
	fiscalYear uint16,
	period uint8,
	accounts, salesOffices []string,
	salesOrgHQ, salesOrgLocal string,
	now time.Time,
) (dataset.RunInfo, error) {
	if period < 1 || period >= 15 {
		return dataset.RunInfo{}, fmt.Errorf("fiscal period out of range: %d", period)
	}

	return dataset.RunInfo{
		Country:       country,
		CompanyCode:   companyCode,
		ExchangeRate:  exchangeRate,
		LocalCurrency: localCurrency,
		Period:        period,
		FiscalYear:    fiscalYear,
		Accounts:      accounts,
		SalesOffices:  salesOffices,
		SalesOrgHQ:    salesOrgHQ,
		SalesOrgLocal: salesOrgLocal,
		Date:          now.Format("02.01.2006"),
		Time:          now.Format("15:04:05"),
	}, nil
}
