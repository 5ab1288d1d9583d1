package dataset

import "time"

// GLItem is one general ledger line item. Pointer fields are null when the
// source column was empty or unparseable: open items have no clearing
// document, and the derived text tokens are null when the posting text does
// not follow the agreed format.
type GLItem struct {
	FiscalYear     uint16
	Period         uint8
	Account        uint32
	Assignment     string
	DocumentNumber int64
	BusinessArea   string
	DocumentType   string
	DocumentDate   time.Time
	PostingDate    time.Time
	PostingKey     uint8
	Amount         float64
	TaxCode        string
	Clearing       *int64
	Text           string

	// Derived from Text: "condition;category;customer;agreement[;note]".
	Condition *string
	Category  *string
	Customer  *uint32
	Agreement *uint32
	Note      *string
}

// ConditionRecord is one rebate condition record from the condition table.
type ConditionRecord struct {
	Client            string
	Application       string
	ConditionType     string
	SalesOrganization string
	SalesOffice       string
	Customer          string
	ValidTo           time.Time
	Agreement         uint32
	ValidFrom         time.Time
	RecordNumber      uint32
}

// AgreementRecord is one agreement master record. Only the columns the
// reconciliation consumes are carried.
type AgreementRecord struct {
	Client              string
	Agreement           uint32
	SalesOrganization   string
	DistributionChannel string
	Division            string
	SalesOffice         string
	SalesGroup          string
	AgreementType       string
	AgreementCategory   string
	Application         string
	CreatedBy           string
	CreatedOn           time.Time
	ChangedBy           string
	ChangedOn           time.Time

	// RebateRecipient stays textual; some entities carry non-numeric IDs.
	RebateRecipient string

	Currency           string
	MaximumRebate      float64
	Category           string
	AgreementStatus    string
	ValidFrom          time.Time
	ValidTo            time.Time
	ConditionTypeGroup string
	Description        string
	AdditionValueDays  *uint32
	ArrangementCal     string
	CompanyCode        string
	Predecessor        *uint32
	SettlementPeriods  string
}

// BonusRecord is one subledger bonus row, local or headquarters scope.
type BonusRecord struct {
	Agreement       uint32
	RebateRecipient string
	Name            string
	City            string
	Country         string
	ConditionType   string
	VariableKey     string
	ConditionRate   *float64
	BasedValue      *float64
	Status          string
	Description     string
	TypeCode        string
	CategoryA       string
	CategoryB       string
	ConditionValue  *float64
	Accruals        *float64
	AccrualsRev     *float64
	Payments        *float64
	OpenValue       *float64
	OpenAccruals    *float64
	Currency        string
	ArrangementCal  string
	SettlementPer   string
	TypeName        string
	ValidFrom       time.Time
	ValidTo         time.Time
	SalesOffice     string
	SalesGroup      string
	Payer           string
	AgreementStatus string
	SalesOrg        string
}

// AccountBalance is one fiscal period's balance of a GL account.
type AccountBalance struct {
	Period            uint8
	Debit             float64
	Credit            float64
	Balance           *float64
	CumulativeBalance *float64
}

// TextSummary is one text-subtotal row: ledger amounts summed over the
// derived text tokens for one GL account. Status is filled by the agreement
// state check.
type TextSummary struct {
	Condition *string
	Category  *string
	Customer  *uint32
	Agreement *uint32
	Note      *string
	AmountSum float64
	Status    string
}

// YearlySummary is one (fiscal year, period, account) amount subtotal used
// for the period overview pivot.
type YearlySummary struct {
	FiscalYear uint16
	Period     uint8
	Account    uint32
	AmountSum  float64
}

// BonusCalc is one reconciled bonus row. AccountSums maps GL account to the
// subledger amount matched on the row's agreement. On headquarters rows that
// repeat an agreement the numeric outputs are null: the first row carries the
// grouped figures, the rest are display only.
type BonusCalc struct {
	RebateRecipient string
	Name            string
	Country         string
	TypeCode        string
	Agreement       uint32
	Status          string
	Description     string
	BaseValue       float64
	Payments        float64
	OpenAccruals    float64
	Currency        string
	ArrangementCal  string
	ValidFrom       time.Time
	ValidTo         time.Time

	CorrToLC       *float64
	LCOpenAccruals *float64
	AccountSums    map[string]float64
	Difference     *float64
}

// HQComparison pairs the distinct headquarters and local agreement numbers
// side by side with an overview text.
type HQComparison struct {
	HQAgreement *uint32
	LEAgreement *uint32
	Overview    string
}

// LocalComparison cross-references one local calculation row against the
// headquarters agreements. HQDifference holds either a rendered number or an
// explanatory message; AmountCompared is "X" when the difference could not be
// computed numerically.
type LocalComparison struct {
	LEAgreement    *uint32
	LEDifference   *float64
	HQAgreement    *uint32
	HQDifference   string
	HQDiffValue    *float64
	Overview       string
	AmountCompared string
}

// Summary is the final general ledger versus subledger comparison table.
// Accounts fixes the column order; every row carries one value per account
// plus a trailing difference column.
type Summary struct {
	Accounts []string
	Rows     []SummaryRow
}

// SummaryRow is one labelled summary line. Nil values render as blanks.
type SummaryRow struct {
	Label      string
	Values     map[string]*float64
	Difference *float64
}

// Value returns the row's amount for an account, or nil.
func (r SummaryRow) Value(account string) *float64 {
	if r.Values == nil {
		return nil
	}
	return r.Values[account]
}

// PeriodOverview is the fiscal year/period by account pivot with per-row and
// grand totals.
type PeriodOverview struct {
	Accounts []string
	Rows     []PeriodOverviewRow
}

// PeriodOverviewRow is one pivot line. GrandTotal marks the closing line,
// which carries no year or period.
type PeriodOverviewRow struct {
	FiscalYear uint16
	Period     uint8
	Values     map[string]float64
	Total      float64
	GrandTotal bool
}

// RunInfo describes one country's reconciliation run for the report's info
// sheet.
type RunInfo struct {
	Country       string
	CompanyCode   string
	ExchangeRate  float64
	LocalCurrency string
	Period        uint8
	FiscalYear    uint16
	Accounts      []string
	SalesOffices  []string
	SalesOrgHQ    string
	SalesOrgLocal string
	Date          string
	Time          string
}
