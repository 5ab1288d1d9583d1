// Package report renders a country's reconciliation results into an xlsx
// workbook, one sheet per dataset. Sheets carry plain values under a header
// row; styling is left to the consumers of the report.
package report

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/glbonus/reconciler/pkg/recon/accum"
	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// Writer builds reconciliation report workbooks.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a report writer. The logger may be nil.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write renders every dataset accumulated for the country into a workbook at
// path. Datasets the country's run never produced are skipped.
func (w *Writer) Write(path, country string, store *accum.Store) error {
	if w.logger != nil {
		w.logger.Info("generating user report", "country", country, "path", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeInfo(f, country, store); err != nil {
		return err
	}
	if err := w.writeConditionRecords(f, country, store); err != nil {
		return err
	}
	if err := w.writeAgreementMaster(f, country, store); err != nil {
		return err
	}
	if err := w.writeBonusRecords(f, "ZSD25 HQ", country, dataset.KindHQBonus, store); err != nil {
		return err
	}
	if err := w.writeBonusRecords(f, "ZSD25 Local Entity", country, dataset.KindLocalBonus, store); err != nil {
		return err
	}
	if err := w.writeBonusRecords(f, "ZSD25 Local Entity Conditions", country, dataset.KindLocalConditions, store); err != nil {
		return err
	}
	if err := w.writeSummary(f, country, store); err != nil {
		return err
	}
	if err := w.writeBonusCalcs(f, "Local Entity Bonuses", country, dataset.KindLocalBonusCalc, store); err != nil {
		return err
	}
	if err := w.writeBonusCalcs(f, "HQ Bonuses", country, dataset.KindHQBonusCalc, store); err != nil {
		return err
	}
	if err := w.writeHQComparison(f, country, store); err != nil {
		return err
	}
	if err := w.writeLocalComparison(f, country, store); err != nil {
		return err
	}
	if err := w.writePeriodOverview(f, country, store); err != nil {
		return err
	}
	if err := w.writeAccountSheets(f, country, store); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report workbook: %w", err)
	}
	return nil
}

func (w *Writer) writeInfo(f *excelize.File, country string, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: dataset.KindRunInfo}
	if !store.Has(key) {
		return nil
	}
	info, err := accum.Fetch[dataset.RunInfo](store, key)
	if err != nil {
		return err
	}

	rows := [][]any{
		{"Country", info.Country},
		{"Company code", info.CompanyCode},
		{"Exchange rate", info.ExchangeRate},
		{"Local currency", info.LocalCurrency},
		{"Period", int(info.Period)},
		{"Fiscal year", int(info.FiscalYear)},
		{"GL accounts", join(info.Accounts)},
		{"Sales offices", join(info.SalesOffices)},
		{"Sales organization global", info.SalesOrgHQ},
		{"Sales organization local", info.SalesOrgLocal},
		{"Date", info.Date},
		{"Time", info.Time},
	}
	return writeRows(f, "Info", rows)
}

func (w *Writer) writeConditionRecords(f *excelize.File, country string, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: dataset.KindConditionRecords}
	if !store.Has(key) {
		return nil
	}
	records, err := accum.Fetch[[]dataset.ConditionRecord](store, key)
	if err != nil {
		return err
	}
	if records == nil {
		return nil
	}

	rows := [][]any{{
		"Client", "Application", "Condition Type", "Sales Organization",
		"Sales Office", "Customer", "Valid To", "Agreement", "Valid From",
		"Condition Record Number",
	}}
	for _, rec := range records {
		rows = append(rows, []any{
			rec.Client, rec.Application, rec.ConditionType,
			rec.SalesOrganization, rec.SalesOffice, rec.Customer,
			optDate(rec.ValidTo), int64(rec.Agreement), optDate(rec.ValidFrom),
			int64(rec.RecordNumber),
		})
	}
	return writeRows(f, "KOTE890", rows)
}

func (w *Writer) writeAgreementMaster(f *excelize.File, country string, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: dataset.KindAgreementMaster}
	if !store.Has(key) {
		return nil
	}
	records, err := accum.Fetch[[]dataset.AgreementRecord](store, key)
	if err != nil {
		return err
	}
	if records == nil {
		return nil
	}

	rows := [][]any{{
		"Client", "Agreement", "Sales Organization", "Distribution Channel",
		"Division", "Sales Office", "Sales Group", "Agreement Type",
		"Agreement Category", "Application", "Created By", "Created On",
		"Changed By", "Changed On", "Rebate Recipient", "Currency",
		"Maximum Rebate", "Category", "Agreement Status", "Valid From",
		"Valid To", "Condition Type Group", "Description",
		"Addition Value Days", "Arrangement Calendar", "Company Code",
		"Predecessor", "Settlement Periods",
	}}
	for _, rec := range records {
		rows = append(rows, []any{
			rec.Client, int64(rec.Agreement), rec.SalesOrganization,
			rec.DistributionChannel, rec.Division, rec.SalesOffice,
			rec.SalesGroup, rec.AgreementType, rec.AgreementCategory,
			rec.Application, rec.CreatedBy, optDate(rec.CreatedOn),
			rec.ChangedBy, optDate(rec.ChangedOn), rec.RebateRecipient,
			rec.Currency, rec.MaximumRebate, rec.Category,
			rec.AgreementStatus, optDate(rec.ValidFrom), optDate(rec.ValidTo),
			rec.ConditionTypeGroup, rec.Description,
			optUint(rec.AdditionValueDays), rec.ArrangementCal,
			rec.CompanyCode, optUint(rec.Predecessor), rec.SettlementPeriods,
		})
	}
	return writeRows(f, "KONA", rows)
}

// writeBonusRecords renders one of the subledger overview dumps: the
// headquarters scope, the cleaned local scope or the local condition detail.
func (w *Writer) writeBonusRecords(f *excelize.File, sheet, country string, kind dataset.Kind, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: kind}
	if !store.Has(key) {
		return nil
	}
	records, err := accum.Fetch[[]dataset.BonusRecord](store, key)
	if err != nil {
		return err
	}
	if records == nil {
		return nil
	}

	rows := [][]any{{
		"Agreement", "Rebate Recipient", "Name", "City", "Country",
		"Condition Type", "Variable Key", "Condition Rate",
		"Condition Based Value", "Status", "Description Of Agreement",
		"Agreement Type Code", "Category A", "Category B", "Condition Value",
		"Accruals", "Accruals Reversed", "Payments", "Open Value",
		"Open Accruals", "Currency", "Arrangement Calendar",
		"Settlement Periods", "Type Name", "Valid From", "Valid To",
		"Sales Office", "Sales Group", "Payer", "Agreement Status",
		"Sales Organization",
	}}
	for _, rec := range records {
		rows = append(rows, []any{
			int64(rec.Agreement), rec.RebateRecipient, rec.Name, rec.City,
			rec.Country, rec.ConditionType, rec.VariableKey,
			optFloat(rec.ConditionRate), optFloat(rec.BasedValue), rec.Status,
			rec.Description, rec.TypeCode, rec.CategoryA, rec.CategoryB,
			optFloat(rec.ConditionValue), optFloat(rec.Accruals),
			optFloat(rec.AccrualsRev), optFloat(rec.Payments),
			optFloat(rec.OpenValue), optFloat(rec.OpenAccruals), rec.Currency,
			rec.ArrangementCal, rec.SettlementPer, rec.TypeName,
			optDate(rec.ValidFrom), optDate(rec.ValidTo), rec.SalesOffice,
			rec.SalesGroup, rec.Payer, rec.AgreementStatus, rec.SalesOrg,
		})
	}
	return writeRows(f, sheet, rows)
}

func (w *Writer) writeSummary(f *excelize.File, country string, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: dataset.KindFinalSummary}
	if !store.Has(key) {
		return nil
	}
	summary, err := accum.Fetch[dataset.Summary](store, key)
	if err != nil {
		return err
	}

	header := []any{"Summary"}
	for _, acc := range summary.Accounts {
		header = append(header, acc)
	}
	header = append(header, "Difference")

	rows := [][]any{header}
	for _, row := range summary.Rows {
		cells := []any{row.Label}
		for _, acc := range summary.Accounts {
			cells = append(cells, optFloat(row.Value(acc)))
		}
		cells = append(cells, optFloat(row.Difference))
		rows = append(rows, cells)
	}
	return writeRows(f, "Summary", rows)
}

func (w *Writer) writeBonusCalcs(f *excelize.File, sheet, country string, kind dataset.Kind, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: kind}
	if !store.Has(key) {
		return nil
	}
	calcs, err := accum.Fetch[[]dataset.BonusCalc](store, key)
	if err != nil {
		return err
	}
	if calcs == nil {
		return nil
	}

	accounts := calcAccounts(calcs)
	header := []any{
		"Rebate Recipient", "Name", "Country", "Agreement Type Code",
		"Agreement", "Status", "Description", "Based Value", "Payments",
		"Open Accruals", "Currency", "Arrangement Calendar", "Valid From",
		"Valid To", "Corr to LC", "LC Open Accr",
	}
	for _, acc := range accounts {
		header = append(header, acc)
	}
	header = append(header, "Difference")

	rows := [][]any{header}
	for _, calc := range calcs {
		cells := []any{
			calc.RebateRecipient, calc.Name, calc.Country, calc.TypeCode,
			int64(calc.Agreement), calc.Status, calc.Description,
			calc.BaseValue, calc.Payments, calc.OpenAccruals, calc.Currency,
			calc.ArrangementCal, optDate(calc.ValidFrom), optDate(calc.ValidTo),
			optFloat(calc.CorrToLC), optFloat(calc.LCOpenAccruals),
		}
		for _, acc := range accounts {
			if calc.AccountSums == nil {
				cells = append(cells, nil)
			} else {
				cells = append(cells, calc.AccountSums[acc])
			}
		}
		cells = append(cells, optFloat(calc.Difference))
		rows = append(rows, cells)
	}
	return writeRows(f, sheet, rows)
}

func (w *Writer) writeHQComparison(f *excelize.File, country string, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: dataset.KindHQComparison}
	if !store.Has(key) {
		return nil
	}
	compare, err := accum.Fetch[[]dataset.HQComparison](store, key)
	if err != nil {
		return err
	}

	rows := [][]any{{"HQ Agreements", "LE Agreements", "Overview"}}
	for _, row := range compare {
		rows = append(rows, []any{optUint(row.HQAgreement), optUint(row.LEAgreement), row.Overview})
	}
	return writeRows(f, "HQ Compare", rows)
}

func (w *Writer) writeLocalComparison(f *excelize.File, country string, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: dataset.KindLocalComparison}
	if !store.Has(key) {
		return nil
	}
	compare, err := accum.Fetch[[]dataset.LocalComparison](store, key)
	if err != nil {
		return err
	}

	rows := [][]any{{
		"Local Entity Bonuses Agreements",
		"Difference Local Entity Bonuses Agreement",
		"HQ Agreements",
		"Difference HQ Agreement",
		"Overview",
		"Amount Compared",
	}}
	for _, row := range compare {
		rows = append(rows, []any{
			optUint(row.LEAgreement),
			optFloat(row.LEDifference),
			optUint(row.HQAgreement),
			row.HQDifference,
			row.Overview,
			row.AmountCompared,
		})
	}
	return writeRows(f, "Local Compare", rows)
}

func (w *Writer) writePeriodOverview(f *excelize.File, country string, store *accum.Store) error {
	key := accum.Key{Country: country, Kind: dataset.KindPeriodOverview}
	if !store.Has(key) {
		return nil
	}
	overview, err := accum.Fetch[dataset.PeriodOverview](store, key)
	if err != nil {
		return err
	}

	header := []any{"Fiscal Year", "Period"}
	for _, acc := range overview.Accounts {
		header = append(header, acc)
	}
	header = append(header, "Grand Total")

	rows := [][]any{header}
	for _, row := range overview.Rows {
		var cells []any
		if row.GrandTotal {
			cells = []any{"Grand Total", nil}
		} else {
			cells = []any{int(row.FiscalYear), int(row.Period)}
		}
		for _, acc := range overview.Accounts {
			if v, ok := row.Values[acc]; ok {
				cells = append(cells, v)
			} else {
				cells = append(cells, nil)
			}
		}
		cells = append(cells, row.Total)
		rows = append(rows, cells)
	}
	return writeRows(f, "Period overview", rows)
}

// writeAccountSheets renders each account's checked text subtotals onto a
// sheet named after the account.
func (w *Writer) writeAccountSheets(f *excelize.File, country string, store *accum.Store) error {
	for _, key := range store.Keys(country) {
		if key.Kind != dataset.KindCheckedSummaries || key.Account == "" {
			continue
		}
		summaries, err := accum.Fetch[[]dataset.TextSummary](store, key)
		if err != nil {
			return err
		}

		rows := [][]any{{"Condition", "Category", "Customer", "Agreement", "Note", "LC Amount Sum", "Status"}}
		for _, s := range summaries {
			rows = append(rows, []any{
				optStr(s.Condition), optStr(s.Category),
				optUint(s.Customer), optUint(s.Agreement),
				optStr(s.Note), s.AmountSum, s.Status,
			})
		}
		if err := writeRows(f, key.Account, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing sheet %s: %w", sheet, err)
		}
	}
	return nil
}

// calcAccounts collects the account columns present in a calculation, sorted.
func calcAccounts(calcs []dataset.BonusCalc) []string {
	seen := make(map[string]struct{})
	for _, calc := range calcs {
		for acc := range calc.AccountSums {
			seen[acc] = struct{}{}
		}
	}
	accounts := make([]string, 0, len(seen))
	for acc := range seen {
		accounts = append(accounts, acc)
	}
	sort.Strings(accounts)
	return accounts
}

func join(vals []string) string {
	return strings.Join(vals, ", ")
}

func optFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func optUint(v *uint32) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func optStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func optDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("02.01.2006")
}
