// Package accum provides the run-scoped accumulator holding every dataset a
// country's reconciliation produces, keyed by country, dataset kind and
// optionally GL account.
//
// Keys are write-once. Overwriting a stored dataset or fetching a key that
// was never stored is a programming error and fails loudly rather than
// producing a report from mixed-up data.
package accum

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

// Sentinel errors.
var (
	// ErrAlreadyStored is returned on a second write to the same key.
	ErrAlreadyStored = errors.New("accum: data already stored under this key")

	// ErrNotStored is returned when fetching a key that holds nothing.
	ErrNotStored = errors.New("accum: no data stored under this key")
)

// Key addresses one dataset in the accumulator. Account is empty for
// country-level datasets.
type Key struct {
	Country string
	Kind    dataset.Kind
	Account string
}

func (k Key) String() string {
	if k.Account == "" {
		return fmt.Sprintf("%s/%s", k.Country, k.Kind)
	}
	return fmt.Sprintf("%s/%s/%s", k.Country, k.Kind, k.Account)
}

// Store is a write-once accumulator. Safe for concurrent use, although the
// pipeline writes from a single goroutine.
type Store struct {
	mu      sync.Mutex
	entries map[Key]any
}

// New creates an empty accumulator.
func New() *Store {
	return &Store{entries: make(map[Key]any)}
}

// Put stores data under the key. A nil data value is a valid entry marking a
// dataset that exists but is empty.
func (s *Store) Put(key Key, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyStored, key)
	}
	s.entries[key] = data
	return nil
}

// Get fetches the data stored under the key.
func (s *Store) Get(key Key) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotStored, key)
	}
	return data, nil
}

// Has reports whether the key holds data.
func (s *Store) Has(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Keys returns every stored key for a country, sorted by kind then account.
func (s *Store) Keys(country string) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []Key
	for k := range s.entries {
		if k.Country == country {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Account < keys[j].Account
	})
	return keys
}

// Clear discards everything.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]any)
}

// Fetch retrieves and type-asserts a stored dataset. It fails when the key
// holds nothing or holds a different type.
func Fetch[T any](s *Store, key Key) (T, error) {
	var zero T
	data, err := s.Get(key)
	if err != nil {
		return zero, err
	}
	if data == nil {
		return zero, nil
	}
	typed, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("accum: %s holds %T, not %T", key, data, zero)
	}
	return typed, nil
}
