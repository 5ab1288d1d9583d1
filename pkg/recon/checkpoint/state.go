// Package checkpoint tracks per-country reconciliation progress so an
// interrupted run can resume where it left off.
//
// Each country carries a set of named stage flags. A flag is a tagged state:
// not started, done, done-with-no-data, or failed with a message. Account
// scoped stages (balance export, text summaries) carry one flag per GL
// account. A country additionally records at most one of a warning or an
// error message for the closing notification.
package checkpoint

// Status is the progress tag of a single stage.
type Status string

const (
	// StatusNotStarted means the stage has not run yet.
	StatusNotStarted Status = "not_started"

	// StatusDone means the stage completed with data.
	StatusDone Status = "done"

	// StatusNoData means the stage completed but the search returned zero
	// rows. Downstream stages treat the dataset as absent, not failed.
	StatusNoData Status = "no_data"

	// StatusFailed means the stage failed; Message carries the reason.
	StatusFailed Status = "failed"
)

// State is the recorded outcome of one stage.
type State struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// NotStarted returns the zero stage state.
func NotStarted() State { return State{Status: StatusNotStarted} }

// Done returns a completed stage state.
func Done() State { return State{Status: StatusDone} }

// NoData returns a completed-but-empty stage state.
func NoData() State { return State{Status: StatusNoData} }

// Failed returns a failed stage state carrying the reason.
func Failed(message string) State {
	return State{Status: StatusFailed, Message: message}
}

// Finished reports whether the stage ran to completion, with or without data.
// A resumed run skips finished stages.
func (s State) Finished() bool {
	return s.Status == StatusDone || s.Status == StatusNoData
}

// Stage names for the country scoped pipeline stages.
const (
	StageGLItemsExported        = "gl_items_exported"
	StageGLItemsConverted       = "gl_items_converted"
	StageLedgerRefreshed        = "ledger_refreshed"
	StageConditionsExported     = "condition_records_exported"
	StageConditionsConverted    = "condition_records_converted"
	StageAgreementsExported     = "agreement_master_exported"
	StageAgreementsConverted    = "agreement_master_converted"
	StageLocalBonusExported     = "local_bonus_exported"
	StageLocalBonusConverted    = "local_bonus_converted"
	StageHQBonusExported        = "hq_bonus_exported"
	StageHQBonusConverted       = "hq_bonus_converted"
	StageYearlySummaryRetrieved = "yearly_summary_retrieved"
	StageReconciled             = "reconciled"
	StageRunInfoStored          = "run_info_stored"
	StageCompleted              = "completed"
)

// Stage names for the account scoped stages.
const (
	StageBalanceExported      = "balance_exported"
	StageBalanceConverted     = "balance_converted"
	StageTextSummaryRetrieved = "text_summary_retrieved"
)

// countryRecord is the persisted per-country document.
type countryRecord struct {
	Stages   map[string]State            `json:"stages"`
	Accounts map[string]map[string]State `json:"accounts,omitempty"`
	Warning  string                      `json:"warning,omitempty"`
	Error    string                      `json:"error,omitempty"`
}

func newCountryRecord() *countryRecord {
	return &countryRecord{
		Stages:   make(map[string]State),
		Accounts: make(map[string]map[string]State),
	}
}

// document is the full persisted checkpoint document, rewritten in full on
// every mutation.
type document struct {
	Countries map[string]*countryRecord `json:"countries"`
}

func newDocument() *document {
	return &document{Countries: make(map[string]*countryRecord)}
}
