package checkpoint

import "errors"

// Sentinel errors returned by Store implementations.
var (
	// ErrUnknownCountry is returned when a country was not registered at Init.
	ErrUnknownCountry = errors.New("checkpoint: unknown country")

	// ErrNoCountries is returned when Init is called with no countries.
	ErrNoCountries = errors.New("checkpoint: no countries configured")

	// ErrStoreClosed is returned when operations are attempted on a closed store.
	ErrStoreClosed = errors.New("checkpoint: store is closed")
)

// Store records reconciliation progress. Implementations must persist every
// mutation before returning, so the recorded state never runs ahead of the
// effects it describes.
//
// Stores are used from a single goroutine but guard internal state anyway.
type Store interface {
	// Init prepares state for the given countries. Existing recorded
	// progress survives; countries without recorded progress start with
	// every stage not started. Fails on an empty country list.
	Init(countries []string) error

	// Countries returns the registered countries in Init order.
	Countries() []string

	// Get returns the state of a country scoped stage. Stages that were
	// never set report not started.
	Get(country, stage string) (State, error)

	// Set records the state of a country scoped stage.
	Set(country, stage string, state State) error

	// GetAccount returns the state of an account scoped stage.
	GetAccount(country, account, stage string) (State, error)

	// SetAccount records the state of an account scoped stage.
	SetAccount(country, account, stage string, state State) error

	// Warning returns the recorded user warning, empty if none.
	Warning(country string) (string, error)

	// SetWarning records a user warning. Ignored when an error is already
	// recorded; warning and error are mutually exclusive.
	SetWarning(country, message string) error

	// UserError returns the recorded user error, empty if none.
	UserError(country string) (string, error)

	// SetUserError records a user error, clearing any recorded warning.
	SetUserError(country, message string) error

	// Clear discards all recorded progress.
	Clear() error

	// Close releases resources held by the store.
	Close() error
}
