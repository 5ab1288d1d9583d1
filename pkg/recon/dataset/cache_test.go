package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

func ptr[T any](v T) *T { return &v }

func TestCacheRoundTrip_GLItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Sweden_gl_items.gob")

	rows := []GLItem{
		{
			FiscalYear:     2026,
			Period:         5,
			Account:        12345678,
			DocumentNumber: 4900000001,
			DocumentType:   "SA",
			PostingDate:    time.Date(2026, 5, 29, 0, 0, 0, 0, time.UTC),
			PostingKey:     40,
			Amount:         -1234.56,
			Text:           "A123;B1;10023;700123",
			Condition:      ptr("A123"),
			Category:       ptr("B1"),
			Customer:       ptr(uint32(10023)),
			Agreement:      ptr(uint32(700123)),
			Clearing:       ptr(int64(2000000099)),
		},
		{
			// Open item: null clearing document, malformed text tokens
			FiscalYear:     2026,
			Period:         5,
			Account:        12345678,
			DocumentNumber: 4900000002,
			DocumentType:   "DR",
			PostingKey:     50,
			Amount:         -50,
			Text:           "manual correction",
		},
	}

	require.NoError(t, WriteCache(path, rows))

	loaded, err := ReadCache[GLItem](path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Nullable fields survive exactly
	require.NotNil(t, loaded[0].Agreement)
	assert.Equal(t, uint32(700123), *loaded[0].Agreement)
	assert.Nil(t, loaded[1].Agreement)
	assert.Nil(t, loaded[1].Clearing)
	assert.Equal(t, rows[0].PostingDate, loaded[0].PostingDate)
	assert.Equal(t, rows, loaded)
}

func TestCacheRoundTrip_AccountBalances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fs10n.gob")

	rows := []AccountBalance{
		{Period: 1, Debit: 100, Credit: -40, Balance: ptr(60.0), CumulativeBalance: ptr(60.0)},
		{Period: 2, Debit: 0, Credit: 0, Balance: nil, CumulativeBalance: nil},
	}

	require.NoError(t, WriteCache(path, rows))

	loaded, err := ReadCache[AccountBalance](path)
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)
}

func TestCacheRoundTrip_EmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gob")

	require.NoError(t, WriteCache(path, []BonusRecord{}))

	loaded, err := ReadCache[BonusRecord](path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestReadCache_MissingFile(t *testing.T) {
	_, err := ReadCache[GLItem](filepath.Join(t.TempDir(), "nope.gob"))
	assert.Error(t, err)
}

func TestReadCache_CorruptFileIsIntegrityError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbled.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, err := ReadCache[GLItem](path)
	require.Error(t, err)
	assert.Equal(t, reconerr.CategoryIntegrity, reconerr.Categorize(err))
}

func TestWriteCache_NoPartialFileOnOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.gob")
	require.NoError(t, WriteCache(path, []YearlySummary{{FiscalYear: 2026, Period: 1, Account: 1, AmountSum: 10}}))
	require.NoError(t, WriteCache(path, []YearlySummary{{FiscalYear: 2026, Period: 2, Account: 1, AmountSum: 20}}))

	loaded, err := ReadCache[YearlySummary](path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, uint8(2), loaded[0].Period)

	// No temp leftovers
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCachePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/tmp/x", "Sweden_gl_items.gob"),
		CachePath("/tmp/x", "Sweden", KindGLItems, ""))
	assert.Equal(t,
		filepath.Join("/tmp/x", "Sweden_account_balance_12345678.gob"),
		CachePath("/tmp/x", "Sweden", KindAccountBalance, "12345678"))
}
