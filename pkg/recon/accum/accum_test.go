package accum

import (
	"testing"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	s := New()
	key := Key{Country: "Sweden", Kind: dataset.KindGLItems}
	rows := []dataset.GLItem{{DocumentNumber: 1, Amount: 100}}

	require.NoError(t, s.Put(key, rows))

	got, err := Fetch[[]dataset.GLItem](s, key)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestPut_SecondWriteFails(t *testing.T) {
	s := New()
	key := Key{Country: "Sweden", Kind: dataset.KindGLItems}

	require.NoError(t, s.Put(key, []dataset.GLItem{{DocumentNumber: 1}}))

	err := s.Put(key, []dataset.GLItem{{DocumentNumber: 2}})
	require.ErrorIs(t, err, ErrAlreadyStored)

	// Original data is untouched
	got, err := Fetch[[]dataset.GLItem](s, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got[0].DocumentNumber)
}

func TestGet_MissingKeyFails(t *testing.T) {
	s := New()

	_, err := s.Get(Key{Country: "Sweden", Kind: dataset.KindHQBonus})
	assert.ErrorIs(t, err, ErrNotStored)
}

func TestAccountScopedKeysAreIndependent(t *testing.T) {
	s := New()
	k1 := Key{Country: "Sweden", Kind: dataset.KindAccountBalance, Account: "12345678"}
	k2 := Key{Country: "Sweden", Kind: dataset.KindAccountBalance, Account: "87654321"}

	require.NoError(t, s.Put(k1, []dataset.AccountBalance{{Period: 1}}))
	require.NoError(t, s.Put(k2, []dataset.AccountBalance{{Period: 2}}))

	// Same kind and account under another country is independent too
	k3 := Key{Country: "Denmark", Kind: dataset.KindAccountBalance, Account: "12345678"}
	require.NoError(t, s.Put(k3, []dataset.AccountBalance{{Period: 3}}))

	// But rewriting an account-scoped key still fails
	err := s.Put(k1, []dataset.AccountBalance{{Period: 9}})
	assert.ErrorIs(t, err, ErrAlreadyStored)
}

func TestPut_NilMarksEmptyDataset(t *testing.T) {
	s := New()
	key := Key{Country: "Sweden", Kind: dataset.KindHQBonus}

	require.NoError(t, s.Put(key, nil))
	assert.True(t, s.Has(key))

	got, err := Fetch[[]dataset.BonusRecord](s, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Still write-once
	assert.ErrorIs(t, s.Put(key, nil), ErrAlreadyStored)
}

func TestFetch_WrongType(t *testing.T) {
	s := New()
	key := Key{Country: "Sweden", Kind: dataset.KindGLItems}
	require.NoError(t, s.Put(key, []dataset.GLItem{}))

	_, err := Fetch[[]dataset.BonusRecord](s, key)
	assert.Error(t, err)
}

func TestKeys_SortedPerCountry(t *testing.T) {
	s := New()
	require.NoError(t, s.Put(Key{Country: "Sweden", Kind: dataset.KindTextSummaries, Account: "2"}, nil))
	require.NoError(t, s.Put(Key{Country: "Sweden", Kind: dataset.KindTextSummaries, Account: "1"}, nil))
	require.NoError(t, s.Put(Key{Country: "Sweden", Kind: dataset.KindGLItems}, nil))
	require.NoError(t, s.Put(Key{Country: "Denmark", Kind: dataset.KindGLItems}, nil))

	keys := s.Keys("Sweden")
	require.Len(t, keys, 3)
	assert.Equal(t, dataset.KindGLItems, keys[0].Kind)
	assert.Equal(t, "1", keys[1].Account)
	assert.Equal(t, "2", keys[2].Account)
}

func TestClear(t *testing.T) {
	s := New()
	key := Key{Country: "Sweden", Kind: dataset.KindGLItems}
	require.NoError(t, s.Put(key, nil))

	s.Clear()

	assert.False(t, s.Has(key))
	require.NoError(t, s.Put(key, nil))
}
