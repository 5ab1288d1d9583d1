package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// DeleteFromPostingDate removes all items posted on or after from, making
// room for a fresh export of the same window.
func (s *Store) DeleteFromPostingDate(ctx context.Context, companyCode string, from time.Time) (int64, error) {
	table, err := itemsTable(companyCode)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE posting_date >= ?", table),
		from.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("deleting accounting data: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		s.warn("no records were deleted using the specified criteria",
			"company_code", companyCode, "from", from.Format("2006-01-02"))
	}
	return deleted, nil
}

// ResetSequence aligns the record ID sequence with the highest stored ID
// after a delete.
func (s *Store) ResetSequence(ctx context.Context, companyCode string) error {
	table, err := itemsTable(companyCode)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE sqlite_sequence
		 SET seq = COALESCE((SELECT MAX(record_id) FROM %s), 0)
		 WHERE name = ?`, table), table)
	if err != nil {
		return fmt.Errorf("resetting record sequence: %w", err)
	}
	return nil
}

// StoreItems bulk inserts converted general ledger items in one transaction.
func (s *Store) StoreItems(ctx context.Context, companyCode string, items []dataset.GLItem) error {
	table, err := itemsTable(companyCode)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storing accounting data: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (
			gl_account, business_area, fiscal_year, period, document_number,
			document_date, posting_date, document_type, assignment, tax_code,
			lc_amount, posting_key, clearing_document, text, condition,
			category, customer, agreement, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("storing accounting data: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			item.Account,
			item.BusinessArea,
			item.FiscalYear,
			item.Period,
			item.DocumentNumber,
			sqlDate(item.DocumentDate),
			sqlDate(item.PostingDate),
			item.DocumentType,
			item.Assignment,
			item.TaxCode,
			item.Amount,
			item.PostingKey,
			item.Clearing,
			item.Text,
			item.Condition,
			item.Category,
			item.Customer,
			item.Agreement,
			item.Note,
		)
		if err != nil {
			return fmt.Errorf("storing accounting data: %w", err)
		}
	}
	return tx.Commit()
}

// sqlDate renders a date column value. Zero times become null.
func sqlDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}
