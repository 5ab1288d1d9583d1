package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/glbonus/reconciler/pkg/recon/checkpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) checkpoint.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	countries := []string{"SE", "DK", "DE"}

	t.Run(name+"/Init_EmptyCountries", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		err := store.Init(nil)
		assert.ErrorIs(t, err, checkpoint.ErrNoCountries)
	})

	t.Run(name+"/Init_DefaultsNotStarted", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))
		st, err := store.Get("SE", checkpoint.StageGLItemsExported)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusNotStarted, st.Status)
		assert.False(t, st.Finished())
	})

	t.Run(name+"/Countries_InitOrder", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))
		assert.Equal(t, countries, store.Countries())
	})

	t.Run(name+"/Set_and_Get", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))
		require.NoError(t, store.Set("SE", checkpoint.StageGLItemsExported, checkpoint.Done()))

		st, err := store.Get("SE", checkpoint.StageGLItemsExported)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusDone, st.Status)
		assert.True(t, st.Finished())

		// Other countries are untouched
		st, err = store.Get("DK", checkpoint.StageGLItemsExported)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusNotStarted, st.Status)
	})

	t.Run(name+"/Set_Failed", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))
		require.NoError(t, store.Set("DK", checkpoint.StageReconciled, checkpoint.Failed("no exchange rate")))

		st, err := store.Get("DK", checkpoint.StageReconciled)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusFailed, st.Status)
		assert.Equal(t, "no exchange rate", st.Message)
		assert.False(t, st.Finished())
	})

	t.Run(name+"/NoData_Finished", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))
		require.NoError(t, store.Set("SE", checkpoint.StageAgreementsExported, checkpoint.NoData()))

		st, err := store.Get("SE", checkpoint.StageAgreementsExported)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusNoData, st.Status)
		assert.True(t, st.Finished())
	})

	t.Run(name+"/UnknownCountry", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))

		_, err := store.Get("FR", checkpoint.StageGLItemsExported)
		assert.ErrorIs(t, err, checkpoint.ErrUnknownCountry)

		err = store.Set("FR", checkpoint.StageGLItemsExported, checkpoint.Done())
		assert.ErrorIs(t, err, checkpoint.ErrUnknownCountry)
	})

	t.Run(name+"/AccountStates", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))

		st, err := store.GetAccount("SE", "12345678", checkpoint.StageBalanceExported)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusNotStarted, st.Status)

		require.NoError(t, store.SetAccount("SE", "12345678", checkpoint.StageBalanceExported, checkpoint.Done()))
		require.NoError(t, store.SetAccount("SE", "87654321", checkpoint.StageBalanceExported, checkpoint.NoData()))

		st, err = store.GetAccount("SE", "12345678", checkpoint.StageBalanceExported)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusDone, st.Status)

		st, err = store.GetAccount("SE", "87654321", checkpoint.StageBalanceExported)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusNoData, st.Status)
	})

	t.Run(name+"/Warning_and_Error_MutuallyExclusive", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))

		require.NoError(t, store.SetWarning("SE", "rate from fallback day"))
		warning, err := store.Warning("SE")
		require.NoError(t, err)
		assert.Equal(t, "rate from fallback day", warning)

		// An error displaces the warning
		require.NoError(t, store.SetUserError("SE", "no exchange rate obtainable"))
		warning, err = store.Warning("SE")
		require.NoError(t, err)
		assert.Empty(t, warning)

		userErr, err := store.UserError("SE")
		require.NoError(t, err)
		assert.Equal(t, "no exchange rate obtainable", userErr)

		// A later warning does not displace the error
		require.NoError(t, store.SetWarning("SE", "late warning"))
		warning, err = store.Warning("SE")
		require.NoError(t, err)
		assert.Empty(t, warning)
	})

	t.Run(name+"/Clear", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Init(countries))
		require.NoError(t, store.Set("SE", checkpoint.StageCompleted, checkpoint.Done()))
		require.NoError(t, store.Clear())

		require.NoError(t, store.Init(countries))
		st, err := store.Get("SE", checkpoint.StageCompleted)
		require.NoError(t, err)
		assert.Equal(t, checkpoint.StatusNotStarted, st.Status)
	})

	t.Run(name+"/Close_ThenError", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Init(countries))
		require.NoError(t, store.Close())

		err := store.Set("SE", checkpoint.StageGLItemsExported, checkpoint.Done())
		assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)

		_, err = store.Get("SE", checkpoint.StageGLItemsExported)
		assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)

		err = store.Init(countries)
		assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)
	})
}

// TestMemoryStore runs contract tests against MemoryStore.
func TestMemoryStore(t *testing.T) {
	factory := func(t *testing.T) checkpoint.Store {
		return checkpoint.NewMemoryStore()
	}
	storeContractTest(t, "MemoryStore", factory)
}

// TestFileStore runs contract tests against FileStore.
func TestFileStore(t *testing.T) {
	factory := func(t *testing.T) checkpoint.Store {
		return checkpoint.NewFileStore(filepath.Join(t.TempDir(), "recovery.json"))
	}
	storeContractTest(t, "FileStore", factory)
}
