// Package ledger persists converted general ledger items and serves the
// aggregates the reconciliation consumes.
//
// Each company code owns one accounting data table plus snapshot tables
// holding pre-aggregated history. The text and yearly summaries union the
// live table with the snapshots, so items archived out of the live table
// still contribute to the subtotals.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	_ "modernc.org/sqlite"
)

// Items posted before this date live only in the snapshot tables.
const fetchFromDate = "2022-01-01"

var numeric = regexp.MustCompile(`^\d+$`)

// Store is the database boundary of the reconciliation.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the ledger database at path. The logger may be nil.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the accounting data table and the snapshot tables for
// a company code if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context, companyCode string, accounts []string) error {
	items, err := itemsTable(companyCode)
	if err != nil {
		return err
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		record_id INTEGER PRIMARY KEY AUTOINCREMENT,
		gl_account INTEGER NOT NULL,
		business_area TEXT,
		fiscal_year INTEGER NOT NULL,
		period INTEGER NOT NULL,
		document_number INTEGER NOT NULL,
		document_date TEXT,
		posting_date TEXT NOT NULL,
		document_type TEXT NOT NULL,
		assignment TEXT,
		tax_code TEXT,
		lc_amount REAL NOT NULL,
		posting_key INTEGER NOT NULL,
		clearing_document INTEGER,
		text TEXT NOT NULL,
		condition TEXT,
		category TEXT,
		customer INTEGER,
		agreement INTEGER,
		note TEXT
	)`, items)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating accounting data table: %w", err)
	}

	yearly, err := yearlySnapshotTable(companyCode)
	if err != nil {
		return err
	}
	ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		gl_account INTEGER NOT NULL,
		fiscal_year INTEGER NOT NULL,
		period INTEGER NOT NULL,
		lc_amount REAL NOT NULL
	)`, yearly)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating yearly snapshot table: %w", err)
	}

	for _, acc := range accounts {
		snapshot, err := textSnapshotTable(companyCode, acc)
		if err != nil {
			return err
		}
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			text TEXT NOT NULL,
			agreement INTEGER,
			category TEXT,
			condition TEXT,
			customer INTEGER,
			note TEXT,
			amount_sum REAL NOT NULL
		)`, snapshot)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating text snapshot table: %w", err)
		}
	}
	return nil
}

func itemsTable(companyCode string) (string, error) {
	if !numeric.MatchString(companyCode) {
		return "", fmt.Errorf("invalid company code: %q", companyCode)
	}
	return "accounting_data_" + companyCode, nil
}

func yearlySnapshotTable(companyCode string) (string, error) {
	if !numeric.MatchString(companyCode) {
		return "", fmt.Errorf("invalid company code: %q", companyCode)
	}
	return "yearly_summary_" + companyCode, nil
}

func textSnapshotTable(companyCode, account string) (string, error) {
	if !numeric.MatchString(companyCode) {
		return "", fmt.Errorf("invalid company code: %q", companyCode)
	}
	if !numeric.MatchString(account) {
		return "", fmt.Errorf("invalid GL account: %q", account)
	}
	return "text_summary_" + companyCode + "_" + account, nil
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
