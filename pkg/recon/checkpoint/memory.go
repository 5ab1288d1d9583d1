package checkpoint

import (
	"slices"
	"sync"
)

// MemoryStore keeps progress in memory. Nothing survives a process restart,
// so it suits tests and one-shot runs where resume is not needed.
type MemoryStore struct {
	mu     sync.Mutex
	doc    *document
	order  []string
	closed bool
}

// NewMemoryStore creates an in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{doc: newDocument()}
}

// Init implements Store.
func (s *MemoryStore) Init(countries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if len(countries) == 0 {
		return ErrNoCountries
	}
	s.order = slices.Clone(countries)
	for _, c := range countries {
		if _, ok := s.doc.Countries[c]; !ok {
			s.doc.Countries[c] = newCountryRecord()
		}
	}
	return nil
}

// Countries implements Store.
func (s *MemoryStore) Countries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Get implements Store.
func (s *MemoryStore) Get(country, stage string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return State{}, ErrUnknownCountry
	}
	st, ok := rec.Stages[stage]
	if !ok {
		return NotStarted(), nil
	}
	return st, nil
}

// Set implements Store.
func (s *MemoryStore) Set(country, stage string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return ErrUnknownCountry
	}
	rec.Stages[stage] = state
	return nil
}

// GetAccount implements Store.
func (s *MemoryStore) GetAccount(country, account, stage string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return State{}, ErrUnknownCountry
	}
	st, ok := rec.Accounts[account][stage]
	if !ok {
		return NotStarted(), nil
	}
	return st, nil
}

// SetAccount implements Store.
func (s *MemoryStore) SetAccount(country, account, stage string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return ErrUnknownCountry
	}
	if rec.Accounts == nil {
		rec.Accounts = make(map[string]map[string]State)
	}
	if rec.Accounts[account] == nil {
		rec.Accounts[account] = make(map[string]State)
	}
	rec.Accounts[account][stage] = state
	return nil
}

// Warning implements Store.
func (s *MemoryStore) Warning(country string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return "", ErrUnknownCountry
	}
	return rec.Warning, nil
}

// SetWarning implements Store.
func (s *MemoryStore) SetWarning(country, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return ErrUnknownCountry
	}
	// An error outranks a warning
	if rec.Error != "" {
		return nil
	}
	rec.Warning = message
	return nil
}

// UserError implements Store.
func (s *MemoryStore) UserError(country string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return "", ErrUnknownCountry
	}
	return rec.Error, nil
}

// SetUserError implements Store.
func (s *MemoryStore) SetUserError(country, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return ErrUnknownCountry
	}
	rec.Error = message
	rec.Warning = ""
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.doc = newDocument()
	s.order = nil
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
