package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// TextSummary aggregates one account's amounts over the posting text and its
// derived tokens, merging the live table with the account's snapshot.
func (s *Store) TextSummary(ctx context.Context, companyCode, account string) ([]dataset.TextSummary, error) {
	table, err := itemsTable(companyCode)
	if err != nil {
		return nil, err
	}
	snapshot, err := textSnapshotTable(companyCode, account)
	if err != nil {
		return nil, err
	}
	acc, err := strconv.ParseUint(account, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid GL account: %q", account)
	}

	query := fmt.Sprintf(
		`SELECT agreement, category, condition, customer, note, ROUND(SUM(amount_sum), 2)
		 FROM (
			SELECT COALESCE(text, '(blank)') AS text, agreement, category,
			       condition, customer, note, SUM(lc_amount) AS amount_sum
			FROM %s
			WHERE gl_account = ? AND posting_date >= ?
			GROUP BY text, agreement, category, condition, customer, note
			UNION ALL
			SELECT text, agreement, category, condition, customer, note, amount_sum
			FROM %s
		 )
		 GROUP BY text, agreement, category, condition, customer, note
		 ORDER BY text ASC`, table, snapshot)

	rows, err := s.db.QueryContext(ctx, query, acc, fetchFromDate)
	if err != nil {
		return nil, fmt.Errorf("querying text summary: %w", err)
	}
	defer rows.Close()

	var summaries []dataset.TextSummary
	for rows.Next() {
		var (
			agreement, customer           sql.NullInt64
			category, condition, noteCell sql.NullString
			amount                        float64
		)
		if err := rows.Scan(&agreement, &category, &condition, &customer, &noteCell, &amount); err != nil {
			return nil, fmt.Errorf("scanning text summary: %w", err)
		}

		summary := dataset.TextSummary{AmountSum: amount}
		if agreement.Valid {
			n := uint32(agreement.Int64)
			summary.Agreement = &n
		}
		if customer.Valid {
			n := uint32(customer.Int64)
			summary.Customer = &n
		}
		if category.Valid {
			summary.Category = &category.String
		}
		if condition.Valid {
			summary.Condition = &condition.String
		}
		if noteCell.Valid {
			summary.Note = &noteCell.String
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// YearlySummary aggregates amounts per account, fiscal year and period,
// merging the live table with the yearly snapshot.
func (s *Store) YearlySummary(ctx context.Context, companyCode string) ([]dataset.YearlySummary, error) {
	table, err := itemsTable(companyCode)
	if err != nil {
		return nil, err
	}
	snapshot, err := yearlySnapshotTable(companyCode)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT gl_account, fiscal_year, period, ROUND(SUM(lc_amount), 2)
		 FROM (
			SELECT gl_account, fiscal_year, period, SUM(lc_amount) AS lc_amount
			FROM %s
			WHERE posting_date >= ?
			GROUP BY gl_account, fiscal_year, period
			UNION ALL
			SELECT gl_account, fiscal_year, period, lc_amount
			FROM %s
		 )
		 GROUP BY gl_account, fiscal_year, period
		 ORDER BY gl_account, fiscal_year, period`, table, snapshot)

	rows, err := s.db.QueryContext(ctx, query, fetchFromDate)
	if err != nil {
		return nil, fmt.Errorf("querying yearly summary: %w", err)
	}
	defer rows.Close()

	var summaries []dataset.YearlySummary
	for rows.Next() {
		var row dataset.YearlySummary
		if err := rows.Scan(&row.Account, &row.FiscalYear, &row.Period, &row.AmountSum); err != nil {
			return nil, fmt.Errorf("scanning yearly summary: %w", err)
		}
		summaries = append(summaries, row)
	}
	return summaries, rows.Err()
}
