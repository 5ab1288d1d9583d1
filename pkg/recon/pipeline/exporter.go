package pipeline

import (
	"context"
	"time"

	"github.com/glbonus/reconciler/pkg/recon/config"
)

// Exporter pulls raw dumps out of the accounting system. Implementations own
// the export transactions and screen handling; the pipeline only sees the
// resulting text. A search that legitimately matches nothing returns a
// NoDataError, transient session failures return a TimeoutError so the
// pipeline's retry policy applies.
type Exporter interface {
	// GLItems exports the general ledger line items posted between from
	// and to on the rule's accounts.
	GLItems(ctx context.Context, rule config.Rule, from, to time.Time) (string, error)

	// ConditionRecords exports the rebate condition table rows for the
	// rule's local sales organization.
	ConditionRecords(ctx context.Context, rule config.Rule) (string, error)

	// AgreementMaster exports the agreement master rows for the given
	// agreement numbers.
	AgreementMaster(ctx context.Context, rule config.Rule, agreements []uint32) (string, error)

	// LocalBonus exports the local scope bonus overview valid on validOn.
	LocalBonus(ctx context.Context, rule config.Rule, validOn time.Time) (string, error)

	// HQBonus exports the headquarters scope bonus overview valid on
	// validOn, filtered to the rule's sales offices.
	HQBonus(ctx context.Context, rule config.Rule, validOn time.Time) (string, error)

	// AccountBalance exports one GL account's balance display for the
	// fiscal year.
	AccountBalance(ctx context.Context, rule config.Rule, account string, fiscalYear uint16) (string, error)
}
