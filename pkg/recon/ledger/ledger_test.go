package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.EnsureSchema(context.Background(), "1075", []string{"21100000"}))
	return store
}

func item(account uint32, postingDate string, amount float64, agreement uint32) dataset.GLItem {
	day, _ := time.Parse("2006-01-02", postingDate)
	cond, categ := "A123", "B1"
	customer := uint32(10023)
	return dataset.GLItem{
		FiscalYear:     2026,
		Period:         5,
		Account:        account,
		DocumentNumber: 4900000001,
		DocumentType:   "SA",
		PostingDate:    day,
		PostingKey:     40,
		Amount:         amount,
		Text:           "A123;B1;10023;700123",
		Condition:      &cond,
		Category:       &categ,
		Customer:       &customer,
		Agreement:      &agreement,
	}
}

func TestStoreItemsAndTextSummary(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	items := []dataset.GLItem{
		item(21100000, "2026-05-10", 600, 700123),
		item(21100000, "2026-05-12", 380.5, 700123),
		item(21100000, "2026-05-12", 400, 700124),
		item(21200000, "2026-05-12", 999, 700123), // other account
	}
	items[2].Text = "A123;B1;10023;700124"
	require.NoError(t, store.StoreItems(ctx, "1075", items))

	summaries, err := store.TextSummary(ctx, "1075", "21100000")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byAgreement := map[uint32]dataset.TextSummary{}
	for _, s := range summaries {
		require.NotNil(t, s.Agreement)
		byAgreement[*s.Agreement] = s
	}
	assert.InDelta(t, 980.5, byAgreement[700123].AmountSum, 1e-9)
	assert.InDelta(t, 400.0, byAgreement[700124].AmountSum, 1e-9)

	require.NotNil(t, byAgreement[700123].Condition)
	assert.Equal(t, "A123", *byAgreement[700123].Condition)
}

func TestTextSummary_MergesSnapshot(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreItems(ctx, "1075", []dataset.GLItem{
		item(21100000, "2026-05-10", 100, 700123),
	}))

	// Archived history lives in the snapshot table only
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO text_summary_1075_21100000
		 (text, agreement, category, condition, customer, note, amount_sum)
		 VALUES ('A123;B1;10023;700123', 700123, 'B1', 'A123', 10023, NULL, 250)`)
	require.NoError(t, err)

	summaries, err := store.TextSummary(ctx, "1075", "21100000")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.InDelta(t, 350.0, summaries[0].AmountSum, 1e-9)
}

func TestDeleteFromPostingDate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreItems(ctx, "1075", []dataset.GLItem{
		item(21100000, "2026-04-28", 100, 700123),
		item(21100000, "2026-05-10", 200, 700123),
		item(21100000, "2026-05-20", 300, 700123),
	}))

	from, _ := time.Parse("2006-01-02", "2026-05-01")
	deleted, err := store.DeleteFromPostingDate(ctx, "1075", from)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	summaries, err := store.TextSummary(ctx, "1075", "21100000")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.InDelta(t, 100.0, summaries[0].AmountSum, 1e-9)
}

func TestResetSequence(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreItems(ctx, "1075", []dataset.GLItem{
		item(21100000, "2026-05-10", 100, 700123),
		item(21100000, "2026-05-12", 200, 700123),
	}))

	from, _ := time.Parse("2006-01-02", "2026-05-11")
	_, err := store.DeleteFromPostingDate(ctx, "1075", from)
	require.NoError(t, err)
	require.NoError(t, store.ResetSequence(ctx, "1075"))

	require.NoError(t, store.StoreItems(ctx, "1075", []dataset.GLItem{
		item(21100000, "2026-05-12", 200, 700123),
	}))

	// The freed record ID is reused after the reset
	var maxID int64
	require.NoError(t, store.db.QueryRowContext(ctx,
		"SELECT MAX(record_id) FROM accounting_data_1075").Scan(&maxID))
	assert.Equal(t, int64(2), maxID)
}

func TestYearlySummary(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	older := item(21100000, "2026-04-28", 150, 700123)
	older.Period = 4
	require.NoError(t, store.StoreItems(ctx, "1075", []dataset.GLItem{
		older,
		item(21100000, "2026-05-10", 100, 700123),
		item(21100000, "2026-05-12", 200, 700123),
	}))

	// Snapshot rows from an archived fiscal year
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO yearly_summary_1075 (gl_account, fiscal_year, period, lc_amount)
		 VALUES (21100000, 2025, 12, 50)`)
	require.NoError(t, err)

	summaries, err := store.YearlySummary(ctx, "1075")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, dataset.YearlySummary{FiscalYear: 2025, Period: 12, Account: 21100000, AmountSum: 50}, summaries[0])
	assert.Equal(t, dataset.YearlySummary{FiscalYear: 2026, Period: 4, Account: 21100000, AmountSum: 150}, summaries[1])
	assert.Equal(t, dataset.YearlySummary{FiscalYear: 2026, Period: 5, Account: 21100000, AmountSum: 300}, summaries[2])
}

func TestInvalidIdentifiers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.TextSummary(ctx, "1075; DROP TABLE x", "21100000")
	assert.Error(t, err)

	_, err = store.TextSummary(ctx, "1075", "21100000 OR 1=1")
	assert.Error(t, err)

	err = store.EnsureSchema(ctx, "bad code", nil)
	assert.Error(t, err)
}
