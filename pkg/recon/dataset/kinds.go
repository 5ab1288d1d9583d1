// Package dataset defines the typed records flowing through the
// reconciliation pipeline and a binary cache for persisting them between
// stages.
package dataset

// Kind names a dataset held in the accumulator. Converted source exports and
// calculation outputs share the vocabulary; report sheets are keyed by it.
type Kind string

const (
	// Converted source exports.
	KindGLItems          Kind = "gl_items"
	KindConditionRecords Kind = "condition_records"
	KindAgreementMaster  Kind = "agreement_master"
	KindLocalBonus       Kind = "local_bonus"
	KindLocalConditions  Kind = "local_conditions"
	KindHQBonus          Kind = "hq_bonus"
	KindAccountBalance   Kind = "account_balance"

	// Ledger aggregates.
	KindTextSummaries    Kind = "text_summaries"
	KindCheckedSummaries Kind = "checked_summaries"
	KindYearlySummary    Kind = "yearly_summary"

	// Calculation outputs.
	KindLocalBonusCalc  Kind = "local_bonus_calcs"
	KindHQBonusCalc     Kind = "hq_bonus_calcs"
	KindHQComparison    Kind = "hq_agreement_comparison"
	KindLocalComparison Kind = "local_agreement_comparison"
	KindPeriodOverview  Kind = "period_overview"
	KindFinalSummary    Kind = "final_summary"
	KindRunInfo         Kind = "info"
)
