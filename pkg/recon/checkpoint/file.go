package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// FileStore persists progress to a single JSON file. The whole document is
// rewritten on every mutation, through a temp file plus rename, so the file
// on disk is always a complete, valid snapshot. A non-empty file found at
// Init is loaded verbatim, which is what makes resume work.
type FileStore struct {
	mu     sync.Mutex
	path   string
	doc    *document
	order  []string
	closed bool
}

// NewFileStore creates a file-backed checkpoint store at path. The file is
// not touched until Init.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, doc: newDocument()}
}

// Init implements Store. If the backing file exists and is non-empty its
// contents become the current state; otherwise every country starts fresh.
func (s *FileStore) Init(countries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if len(countries) == 0 {
		return ErrNoCountries
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		s.doc = newDocument()
	case err != nil:
		return fmt.Errorf("read checkpoint file %s: %w", s.path, err)
	case len(raw) == 0:
		s.doc = newDocument()
	default:
		doc := newDocument()
		if err := json.Unmarshal(raw, doc); err != nil {
			return fmt.Errorf("parse checkpoint file %s: %w", s.path, err)
		}
		if doc.Countries == nil {
			doc.Countries = make(map[string]*countryRecord)
		}
		s.doc = doc
	}

	s.order = slices.Clone(countries)
	for _, c := range countries {
		if _, ok := s.doc.Countries[c]; !ok {
			s.doc.Countries[c] = newCountryRecord()
		}
	}
	return s.persist()
}

// Countries implements Store.
func (s *FileStore) Countries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Get implements Store.
func (s *FileStore) Get(country, stage string) (State, error) {
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
func (s *FileStore) Set(country, stage string, state State) error {
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
	return s.persist()
}

// GetAccount implements Store.
func (s *FileStore) GetAccount(country, account, stage string) (State, error) {
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
func (s *FileStore) SetAccount(country, account, stage string, state State) error {
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
	return s.persist()
}

// Warning implements Store.
func (s *FileStore) Warning(country string) (string, error) {
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
func (s *FileStore) SetWarning(country, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	rec, ok := s.doc.Countries[country]
	if !ok {
		return ErrUnknownCountry
	}
	if rec.Error != "" {
		return nil
	}
	rec.Warning = message
	return s.persist()
}

// UserError implements Store.
func (s *FileStore) UserError(country string) (string, error) {
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
func (s *FileStore) SetUserError(country, message string) error {
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
	return s.persist()
}

// Clear implements Store. The backing file is removed, not emptied, so the
// next Init starts from scratch.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.doc = newDocument()
	s.order = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint file %s: %w", s.path, err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// persist rewrites the full document. Callers hold s.mu.
func (s *FileStore) persist() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint document: %w", err)
	}
	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write checkpoint file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace checkpoint file: %w", err)
	}
	return nil
}
